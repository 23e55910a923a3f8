package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"
	"github.com/mithilsmehta/TaskFlow/internal/realtime"
)

// NotificationEvent is the payload of a notification:new push
type NotificationEvent struct {
	Notification models.Notification `json:"notification"`
}

// Notifier turns task lifecycle events into persisted notifications and hands
// each one to the delivery layer. The acting user is never a recipient.
//
// For one event every row is written before the first push goes out.
type Notifier struct {
	store   *NotificationService
	users   UserDirectory
	pusher  Pusher
	metrics MetricsRecorder

	mailer     Mailer
	emailTypes map[models.NotificationType]bool
}

// NewNotifier creates the fan-out engine
func NewNotifier(store *NotificationService, users UserDirectory, pusher Pusher, metrics MetricsRecorder) *Notifier {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Notifier{
		store:   store,
		users:   users,
		pusher:  pusher,
		metrics: metrics,
	}
}

// EnableEmail mails rows of the given types to recipients that had no live
// connection when the row was pushed
func (n *Notifier) EnableEmail(mailer Mailer, types ...models.NotificationType) {
	n.mailer = mailer
	n.emailTypes = make(map[models.NotificationType]bool, len(types))
	for _, t := range types {
		n.emailTypes[t] = true
	}
}

// NotifyAssigned tells newly assigned users about the task
func (n *Notifier) NotifyAssigned(ctx context.Context, task *models.Task, actor models.Identity, assigned []string) ([]models.Notification, error) {
	drafts := n.draft(task, actor, recipients(assigned, actor.UserID), models.NotificationTaskAssigned,
		"New Task Assigned",
		fmt.Sprintf("%s assigned you to %q", actor.Name, task.Title))
	return n.fanOut(ctx, "task_assigned", task.CompanyID, drafts)
}

// NotifyUpdated tells the current assignees what changed
func (n *Notifier) NotifyUpdated(ctx context.Context, task *models.Task, actor models.Identity, updateType string) ([]models.Notification, error) {
	drafts := n.draft(task, actor, recipients(task.AssignedTo, actor.UserID), models.NotificationTaskUpdated,
		"Task Updated",
		fmt.Sprintf("%s updated %q - %s", actor.Name, task.Title, updateType))
	return n.fanOut(ctx, "task_updated", task.CompanyID, drafts)
}

// NotifyCompleted runs two passes: one to the other assignees and one to the
// company admins. An admin who is also an assignee can receive both wordings.
func (n *Notifier) NotifyCompleted(ctx context.Context, task *models.Task, actor models.Identity) ([]models.Notification, error) {
	drafts := n.draft(task, actor, recipients(task.AssignedTo, actor.UserID), models.NotificationTaskCompleted,
		"Task Completed",
		fmt.Sprintf("%s completed %q", actor.Name, task.Title))

	var errs []error
	admins, err := n.users.ListAdmins(ctx, task.CompanyID)
	if err != nil {
		log.Printf("[FANOUT] Failed to list admins for company=%s: %v", task.CompanyID, err)
		errs = append(errs, fmt.Errorf("list admins: %w", err))
	}
	adminIDs := make([]string, 0, len(admins))
	for _, a := range admins {
		adminIDs = append(adminIDs, a.ID)
	}
	drafts = append(drafts, n.draft(task, actor, recipients(adminIDs, actor.UserID), models.NotificationTaskCompleted,
		"Task Completed",
		fmt.Sprintf("%s has completed their task %q", actor.Name, task.Title))...)

	created, err := n.fanOut(ctx, "task_completed", task.CompanyID, drafts)
	if err != nil {
		errs = append(errs, err)
	}
	return created, errors.Join(errs...)
}

// NotifyDeleted tells the assignees of a removed task
func (n *Notifier) NotifyDeleted(ctx context.Context, task *models.Task, actor models.Identity) ([]models.Notification, error) {
	drafts := n.draft(task, actor, recipients(task.AssignedTo, actor.UserID), models.NotificationTaskDeleted,
		"Task Deleted",
		fmt.Sprintf("%s deleted %q", actor.Name, task.Title))
	return n.fanOut(ctx, "task_deleted", task.CompanyID, drafts)
}

// NotifyDueSoon reminds every assignee of an approaching due date.
// There is no acting user; the reminder comes from the system.
func (n *Notifier) NotifyDueSoon(ctx context.Context, task *models.Task) ([]models.Notification, error) {
	due := "soon"
	if task.DueDate != nil {
		due = "on " + task.DueDate.Format("Jan 2, 2006")
	}
	drafts := n.draft(task, models.Identity{}, recipients(task.AssignedTo, ""), models.NotificationTaskDueSoon,
		"Task Due Soon",
		fmt.Sprintf("%q is due %s", task.Title, due))
	return n.fanOut(ctx, "task_due_soon", task.CompanyID, drafts)
}

func (n *Notifier) draft(task *models.Task, actor models.Identity, to []string, typ models.NotificationType, title, message string) []models.Notification {
	drafts := make([]models.Notification, 0, len(to))
	for _, userID := range to {
		drafts = append(drafts, models.Notification{
			UserID:    userID,
			CompanyID: task.CompanyID,
			Type:      typ,
			Title:     title,
			Message:   message,
			TaskID:    task.ID,
			ActionBy:  actor.UserID,
		})
	}
	return drafts
}

// fanOut persists every draft, then pushes every persisted row.
// A failed row is logged and skipped; the rest still go out.
func (n *Notifier) fanOut(ctx context.Context, event, companyID string, drafts []models.Notification) ([]models.Notification, error) {
	started := time.Now()
	stats := FanoutStats{Event: event, CompanyID: companyID, Recipients: len(drafts)}

	var errs []error
	created := make([]models.Notification, 0, len(drafts))
	for i := range drafts {
		saved, err := n.store.Create(ctx, &drafts[i])
		if err != nil {
			stats.Failed++
			log.Printf("[FANOUT] %s: failed to store notification for user=%s: %v", event, drafts[i].UserID, err)
			errs = append(errs, err)
			continue
		}
		created = append(created, *saved)
	}
	stats.Stored = len(created)

	for _, notification := range created {
		if n.pusher != nil && n.pusher.PushToUser(notification.UserID, realtime.EventNotificationNew, NotificationEvent{Notification: notification}) > 0 {
			stats.Pushed++
			continue
		}
		if n.email(ctx, notification) {
			stats.Emailed++
		}
	}

	stats.Duration = time.Since(started)
	if stats.Recipients > 0 {
		log.Printf("[FANOUT] %s: company=%s recipients=%d stored=%d pushed=%d emailed=%d failed=%d",
			event, companyID, stats.Recipients, stats.Stored, stats.Pushed, stats.Emailed, stats.Failed)
	}
	n.metrics.RecordFanout(ctx, stats)

	return created, errors.Join(errs...)
}

// email is the offline fallback. Errors are logged; the stored row stays the
// source of truth.
func (n *Notifier) email(ctx context.Context, notification models.Notification) bool {
	if n.mailer == nil || !n.emailTypes[notification.Type] {
		return false
	}

	user, err := n.users.GetUser(ctx, notification.CompanyID, notification.UserID)
	if err != nil {
		log.Printf("[EMAIL] Failed to look up user=%s: %v", notification.UserID, err)
		return false
	}
	if user.Email == "" {
		return false
	}

	if err := n.mailer.SendNotificationEmail(ctx, *user, notification); err != nil {
		log.Printf("[EMAIL] Failed to email notification=%s to user=%s: %v", notification.ID, user.ID, err)
		return false
	}
	return true
}

// recipients de-duplicates ids and drops the acting user
func recipients(ids []string, actorID string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if actorID != "" && id == actorID {
			continue
		}
		out = append(out, id)
	}
	return out
}
