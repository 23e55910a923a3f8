package models

import (
	"time"
)

// TaskStatus is one of the three fixed task states
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// TaskStatuses lists the allowed statuses in board order
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the allowed statuses
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority is the task priority level
type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// TaskPriorities lists the allowed priorities from lowest to highest
var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of the allowed priorities
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ChecklistItem is a single entry of a task's todo checklist
type ChecklistItem struct {
	ID   string `bson:"_id" json:"_id"`
	Text string `bson:"text" json:"text"`
	Done bool   `bson:"done" json:"done"`
}

// Task is a tenant-scoped unit of work
type Task struct {
	ID          string          `bson:"_id" json:"_id"`
	CompanyID   string          `bson:"companyId" json:"companyId"`
	CreatedBy   string          `bson:"createdBy" json:"createdBy"`
	Title       string          `bson:"title" json:"title"`
	Description string          `bson:"description" json:"description"`
	Priority    TaskPriority    `bson:"priority" json:"priority"`
	Status      TaskStatus      `bson:"status" json:"status"`
	StartDate   *time.Time      `bson:"startDate,omitempty" json:"startDate,omitempty"`
	DueDate     *time.Time      `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Progress    int             `bson:"progress" json:"progress"`
	AssignedTo  []string        `bson:"assignedTo" json:"assignedTo"`
	Checklist   []ChecklistItem `bson:"todoChecklist" json:"todoChecklist"`
	Attachments []string        `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`

	// Set once a due-soon reminder went out for the current due date
	DueSoonNotifiedAt *time.Time `bson:"dueSoonNotifiedAt,omitempty" json:"-"`
}

// IsAssignee reports whether userID is bound to the task
func (t *Task) IsAssignee(userID string) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can diff before/after states
func (t *Task) Clone() *Task {
	c := *t
	c.AssignedTo = append(make([]string, 0, len(t.AssignedTo)), t.AssignedTo...)
	c.Checklist = append(make([]ChecklistItem, 0, len(t.Checklist)), t.Checklist...)
	c.Attachments = append(make([]string, 0, len(t.Attachments)), t.Attachments...)
	if t.StartDate != nil {
		v := *t.StartDate
		c.StartDate = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.DueSoonNotifiedAt != nil {
		v := *t.DueSoonNotifiedAt
		c.DueSoonNotifiedAt = &v
	}
	return &c
}

// EnsureLists replaces nil list fields with empty ones so they encode as []
func (t *Task) EnsureLists() {
	if t.AssignedTo == nil {
		t.AssignedTo = []string{}
	}
	if t.Checklist == nil {
		t.Checklist = []ChecklistItem{}
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
}

// TaskFilter narrows a tenant-scoped task listing
type TaskFilter struct {
	Status   TaskStatus // empty means any
	Assignee string     // empty means any
}

// ChecklistItemInput is the inbound shape of a checklist entry
type ChecklistItemInput struct {
	ID   string `json:"_id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Priority    TaskPriority         `json:"priority"`
	StartDate   *time.Time           `json:"startDate"`
	DueDate     *time.Time           `json:"dueDate"`
	AssignedTo  []string             `json:"assignedTo"`
	Checklist   []ChecklistItemInput `json:"todoChecklist"`
	Attachments []string             `json:"attachments"`
}

// TaskPatch is the body of PUT /api/tasks/:id. Nil fields are absent from the request.
type TaskPatch struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Priority    *TaskPriority         `json:"priority"`
	Status      *TaskStatus           `json:"status"`
	StartDate   *time.Time            `json:"startDate"`
	DueDate     *time.Time            `json:"dueDate"`
	Progress    *int                  `json:"progress"`
	AssignedTo  *[]string             `json:"assignedTo"`
	Checklist   *[]ChecklistItemInput `json:"todoChecklist"`
	Attachments *[]string             `json:"attachments"`
}

// StatusRequest is the body of PUT /api/tasks/:id/status
type StatusRequest struct {
	Status TaskStatus `json:"status"`
}

// ChecklistRequest is the body of PUT /api/tasks/:id/todo
type ChecklistRequest struct {
	Checklist []ChecklistItemInput `json:"todoChecklist"`
}

// StatusSummary counts a task listing by status
type StatusSummary struct {
	All             int `json:"all"`
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	CompletedTasks  int `json:"completedTasks"`
}

// TaskListResponse is returned by GET /api/tasks
type TaskListResponse struct {
	Tasks         []Task        `json:"tasks"`
	StatusSummary StatusSummary `json:"statusSummary"`
}

// UpdateTaskResponse carries the updated task plus any fields the caller could not write
type UpdateTaskResponse struct {
	Task
	RejectedFields []string `json:"rejectedFields,omitempty"`
}

// DashboardData is returned by the dashboard endpoints
type DashboardData struct {
	TotalTasks         int            `json:"totalTasks"`
	PendingTasks       int            `json:"pendingTasks"`
	CompletedTasks     int            `json:"completedTasks"`
	OverdueTasks       int            `json:"overdueTasks"`
	TaskDistribution   map[string]int `json:"taskDistribution"`
	TaskPriorityLevels map[string]int `json:"taskPriorityLevels"`
	RecentTasks        []Task         `json:"recentTasks"`
}

// AttachmentLink pairs a stored attachment reference with a fetchable URL
type AttachmentLink struct {
	Ref string `json:"ref"`
	URL string `json:"url"`
}
