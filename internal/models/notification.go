package models

import "time"

// NotificationType identifies the task lifecycle event behind a notification
type NotificationType string

const (
	NotificationTaskAssigned  NotificationType = "task_assigned"
	NotificationTaskUpdated   NotificationType = "task_updated"
	NotificationTaskCompleted NotificationType = "task_completed"
	NotificationTaskComment   NotificationType = "task_comment"
	NotificationTaskMention   NotificationType = "task_mention"
	NotificationTaskDueSoon   NotificationType = "task_due_soon"
	NotificationTaskDeleted   NotificationType = "task_deleted"
)

// Notification is a persisted, per-recipient feed entry
type Notification struct {
	ID        string           `bson:"_id" json:"_id"`
	UserID    string           `bson:"userId" json:"userId"`
	CompanyID string           `bson:"companyId" json:"companyId"`
	Type      NotificationType `bson:"type" json:"type"`
	Title     string           `bson:"title" json:"title"`
	Message   string           `bson:"message" json:"message"`
	TaskID    string           `bson:"taskId,omitempty" json:"taskId,omitempty"`
	ActionBy  string           `bson:"actionBy,omitempty" json:"actionBy,omitempty"`
	Read      bool             `bson:"read" json:"read"`
	ReadAt    *time.Time       `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt time.Time        `bson:"createdAt" json:"createdAt"`
}

// Recipient scopes notification reads and writes to one user inside one company
type Recipient struct {
	CompanyID string
	UserID    string
}

// Recipient returns the scope of the caller's own notification feed
func (i Identity) Recipient() Recipient {
	return Recipient{CompanyID: i.CompanyID, UserID: i.UserID}
}

// NotificationQuery holds the paging options of a feed listing
type NotificationQuery struct {
	Limit      int
	Skip       int
	UnreadOnly bool
}

// NotificationList is returned by GET /api/notifications
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unreadCount"`
}
