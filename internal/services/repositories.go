package services

import (
	"context"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"
)

// TaskRepository persists tasks. Every tenant-facing method takes the company id
// and applies it as a filter; a task outside that company is models.ErrNotFound.
type TaskRepository interface {
	// ListTasks returns matching tasks, newest first
	ListTasks(ctx context.Context, companyID string, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, companyID, taskID string) (*models.Task, error)
	InsertTask(ctx context.Context, task *models.Task) error
	// ReplaceTask overwrites the stored document (last write wins)
	ReplaceTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, companyID, taskID string) (*models.Task, error)

	// ListDueSoon spans all companies and returns open tasks due in [from, until]
	// that have not been reminded yet
	ListDueSoon(ctx context.Context, from, until time.Time) ([]models.Task, error)
	MarkDueSoonNotified(ctx context.Context, companyID, taskID string, at time.Time) error
}

// NotificationRepository persists notification rows. Every read and write is
// filtered on both the company and the user of the recipient.
type NotificationRepository interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications returns the recipient's rows, newest first
	ListNotifications(ctx context.Context, to models.Recipient, q models.NotificationQuery) ([]models.Notification, error)
	CountUnread(ctx context.Context, to models.Recipient) (int64, error)
	// MarkRead flips read once and stamps readAt; an already read row is returned unchanged
	MarkRead(ctx context.Context, to models.Recipient, id string, at time.Time) (*models.Notification, error)
	MarkAllRead(ctx context.Context, to models.Recipient, at time.Time) (int64, error)
	// DeleteNotification is a no-op for ids that are missing or owned by someone else
	DeleteNotification(ctx context.Context, to models.Recipient, id string) error
}

// UserDirectory is the read side of the external user store
type UserDirectory interface {
	// CountInCompany counts how many of ids belong to users of the company
	CountInCompany(ctx context.Context, companyID string, ids []string) (int, error)
	ListAdmins(ctx context.Context, companyID string) ([]models.User, error)
	// GetUser is scoped like tasks: a user of another company is models.ErrNotFound
	GetUser(ctx context.Context, companyID, userID string) (*models.User, error)
	UpsertUser(ctx context.Context, user models.User) error
}

// Pusher is the delivery layer as seen by the fan-out engine
type Pusher interface {
	PushToUser(userID, event string, payload any) int
	PushToCompany(companyID, event string, payload any) int
	IsOnline(userID string) bool
}
