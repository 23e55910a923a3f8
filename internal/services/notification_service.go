package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"

	"github.com/google/uuid"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationService is the durable notification store: the authoritative feed
// clients pull from when they mount or reconnect.
type NotificationService struct {
	repo NotificationRepository
	now  func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{
		repo: repo,
		now:  time.Now,
	}
}

// Create persists a notification, filling id, timestamps and the unread state
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if n.UserID == "" {
		return nil, models.Invalidf("notification recipient is required")
	}
	if n.CompanyID == "" {
		return nil, models.Invalidf("notification company is required")
	}
	if n.ActionBy != "" && n.ActionBy == n.UserID {
		return nil, models.Invalidf("notification recipient is the acting user")
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.Read = false
	n.ReadAt = nil
	n.CreatedAt = s.now()

	if err := s.repo.InsertNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// List returns a page of the caller's feed plus their total unread count
func (s *NotificationService) List(ctx context.Context, caller models.Identity, q models.NotificationQuery) (*models.NotificationList, error) {
	if q.Limit <= 0 {
		q.Limit = defaultNotificationLimit
	}
	if q.Limit > maxNotificationLimit {
		q.Limit = maxNotificationLimit
	}
	if q.Skip < 0 {
		q.Skip = 0
	}

	notifications, err := s.repo.ListNotifications(ctx, caller.Recipient(), q)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	unread, err := s.repo.CountUnread(ctx, caller.Recipient())
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &models.NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead marks one of the caller's notifications read. Repeating the call
// keeps the original readAt.
func (s *NotificationService) MarkRead(ctx context.Context, caller models.Identity, id string) (*models.Notification, error) {
	n, err := s.repo.MarkRead(ctx, caller.Recipient(), id, s.now())
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the caller read
func (s *NotificationService) MarkAllRead(ctx context.Context, caller models.Identity) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, caller.Recipient(), s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

// Delete removes one of the caller's notifications; unknown ids are ignored
func (s *NotificationService) Delete(ctx context.Context, caller models.Identity, id string) error {
	if err := s.repo.DeleteNotification(ctx, caller.Recipient(), id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// UnreadCount returns the caller's unread total
func (s *NotificationService) UnreadCount(ctx context.Context, caller models.Identity) (int64, error) {
	count, err := s.repo.CountUnread(ctx, caller.Recipient())
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
