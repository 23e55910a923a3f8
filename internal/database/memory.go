package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"
)

// MemoryStore keeps tasks, notifications and users in process memory.
// It backs the server when MongoDB is not configured and serves as the test store.
type MemoryStore struct {
	mu            sync.RWMutex
	tasks         map[string]*models.Task
	notifications map[string]*models.Notification
	users         map[string]models.User
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:         make(map[string]*models.Task),
		notifications: make(map[string]*models.Notification),
		users:         make(map[string]models.User),
	}
}

// ListTasks returns the company's tasks matching filter, newest first
func (m *MemoryStore) ListTasks(_ context.Context, companyID string, filter models.TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := []models.Task{}
	for _, t := range m.tasks {
		if t.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Assignee != "" && !t.IsAssignee(filter.Assignee) {
			continue
		}
		tasks = append(tasks, *t.Clone())
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// GetTask loads one task of the company
func (m *MemoryStore) GetTask(_ context.Context, companyID, taskID string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[taskID]
	if !ok || t.CompanyID != companyID {
		return nil, models.ErrNotFound
	}
	return t.Clone(), nil
}

// InsertTask stores a new task
func (m *MemoryStore) InsertTask(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks[task.ID] = task.Clone()
	return nil
}

// ReplaceTask overwrites the stored task
func (m *MemoryStore) ReplaceTask(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tasks[task.ID]
	if !ok || existing.CompanyID != task.CompanyID {
		return models.ErrNotFound
	}
	m.tasks[task.ID] = task.Clone()
	return nil
}

// DeleteTask removes a task of the company and returns what was removed
func (m *MemoryStore) DeleteTask(_ context.Context, companyID, taskID string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.CompanyID != companyID {
		return nil, models.ErrNotFound
	}
	delete(m.tasks, taskID)
	return t, nil
}

// ListDueSoon returns open, not yet reminded tasks due in [from, until]
func (m *MemoryStore) ListDueSoon(_ context.Context, from, until time.Time) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tasks := []models.Task{}
	for _, t := range m.tasks {
		if t.Status == models.StatusCompleted || t.DueDate == nil || t.DueSoonNotifiedAt != nil || len(t.AssignedTo) == 0 {
			continue
		}
		if t.DueDate.Before(from) || t.DueDate.After(until) {
			continue
		}
		tasks = append(tasks, *t.Clone())
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(*tasks[j].DueDate)
	})
	return tasks, nil
}

// MarkDueSoonNotified stamps the reminder time on a task
func (m *MemoryStore) MarkDueSoonNotified(_ context.Context, companyID, taskID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tasks[taskID]; ok && t.CompanyID == companyID {
		t.DueSoonNotifiedAt = &at
	}
	return nil
}

// InsertNotification stores one notification row
func (m *MemoryStore) InsertNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *n
	m.notifications[n.ID] = &c
	return nil
}

// ListNotifications returns a page of the recipient's rows, newest first
func (m *MemoryStore) ListNotifications(_ context.Context, to models.Recipient, q models.NotificationQuery) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := []models.Notification{}
	for _, n := range m.notifications {
		if !ownedBy(n, to) || (q.UnreadOnly && n.Read) {
			continue
		}
		rows = append(rows, *n)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	if q.Skip >= len(rows) {
		return []models.Notification{}, nil
	}
	rows = rows[q.Skip:]
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

// CountUnread counts the recipient's unread rows
func (m *MemoryStore) CountUnread(_ context.Context, to models.Recipient) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, n := range m.notifications {
		if ownedBy(n, to) && !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flips the row to read once; an already read row is returned unchanged
func (m *MemoryStore) MarkRead(_ context.Context, to models.Recipient, id string, at time.Time) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok || !ownedBy(n, to) {
		return nil, models.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &at
	}
	c := *n
	return &c, nil
}

// MarkAllRead flips every unread row of the recipient
func (m *MemoryStore) MarkAllRead(_ context.Context, to models.Recipient, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, n := range m.notifications {
		if ownedBy(n, to) && !n.Read {
			n.Read = true
			readAt := at
			n.ReadAt = &readAt
			count++
		}
	}
	return count, nil
}

// DeleteNotification removes one of the recipient's rows; a miss is not an error
func (m *MemoryStore) DeleteNotification(_ context.Context, to models.Recipient, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, ok := m.notifications[id]; ok && ownedBy(n, to) {
		delete(m.notifications, id)
	}
	return nil
}

func ownedBy(n *models.Notification, to models.Recipient) bool {
	return n.CompanyID == to.CompanyID && n.UserID == to.UserID
}

// CountInCompany counts how many of ids are users of the company
func (m *MemoryStore) CountInCompany(_ context.Context, companyID string, ids []string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, id := range ids {
		if u, ok := m.users[id]; ok && u.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

// ListAdmins returns the company's admins ordered by id
func (m *MemoryStore) ListAdmins(_ context.Context, companyID string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	admins := []models.User{}
	for _, u := range m.users {
		if u.CompanyID == companyID && u.Role == models.RoleAdmin {
			admins = append(admins, u)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].ID < admins[j].ID })
	return admins, nil
}

// GetUser loads one directory entry of the company
func (m *MemoryStore) GetUser(_ context.Context, companyID, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok || u.CompanyID != companyID {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

// UpsertUser creates or refreshes a directory entry
func (m *MemoryStore) UpsertUser(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[user.ID] = user
	return nil
}

// Notifications returns every stored notification of the user, oldest first
func (m *MemoryStore) Notifications(userID string) []models.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := []models.Notification{}
	for _, n := range m.notifications {
		if userID == "" || n.UserID == userID {
			rows = append(rows, *n)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
