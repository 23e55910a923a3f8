package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mithilsmehta/TaskFlow/internal/database"
	"github.com/mithilsmehta/TaskFlow/internal/models"
)

const (
	companyT     = "company-t"
	companyOther = "company-o"
)

var (
	alice = models.Identity{UserID: "alice", Name: "Alice", Role: models.RoleAdmin, CompanyID: companyT}
	ada   = models.Identity{UserID: "ada", Name: "Ada", Role: models.RoleAdmin, CompanyID: companyT}
	bob   = models.Identity{UserID: "bob", Name: "Bob", Role: models.RoleMember, CompanyID: companyT}
	carol = models.Identity{UserID: "carol", Name: "Carol", Role: models.RoleMember, CompanyID: companyT}
	oscar = models.Identity{UserID: "oscar", Name: "Oscar", Role: models.RoleAdmin, CompanyID: companyOther}
	olga  = models.Identity{UserID: "olga", Name: "Olga", Role: models.RoleMember, CompanyID: companyOther}
)

type push struct {
	Target  string
	Event   string
	Payload any
}

// recordingPusher captures pushes; onPush runs before each user push is recorded
type recordingPusher struct {
	mu      sync.Mutex
	users   []push
	company []push
	online  map[string]bool
	onPush  func(userID string)
}

func (p *recordingPusher) PushToUser(userID, event string, payload any) int {
	if p.onPush != nil {
		p.onPush(userID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, push{Target: userID, Event: event, Payload: payload})
	if p.online[userID] {
		return 1
	}
	return 0
}

func (p *recordingPusher) PushToCompany(companyID, event string, payload any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.company = append(p.company, push{Target: companyID, Event: event, Payload: payload})
	return 0
}

func (p *recordingPusher) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *recordingPusher) userPushes() []push {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]push(nil), p.users...)
}

func (p *recordingPusher) companyPushes() []push {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]push(nil), p.company...)
}

// failingNotifications rejects every insert
type failingNotifications struct {
	*database.MemoryStore
}

func (failingNotifications) InsertNotification(context.Context, *models.Notification) error {
	return errors.New("notification store unavailable")
}

type testEnv struct {
	store         *database.MemoryStore
	pusher        *recordingPusher
	notifications *NotificationService
	notifier      *Notifier
	dispatcher    *Dispatcher
	tasks         *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := database.NewMemoryStore()
	return newTestEnvWith(t, store, store)
}

func newTestEnvWith(t *testing.T, store *database.MemoryStore, notificationRepo NotificationRepository) *testEnv {
	t.Helper()

	for _, id := range []models.Identity{alice, ada, bob, carol, oscar, olga} {
		user := models.User{ID: id.UserID, Name: id.Name, Role: id.Role, CompanyID: id.CompanyID}
		if err := store.UpsertUser(context.Background(), user); err != nil {
			t.Fatalf("UpsertUser: %v", err)
		}
	}

	pusher := &recordingPusher{online: map[string]bool{}}
	notifications := NewNotificationService(notificationRepo)
	notifier := NewNotifier(notifications, store, pusher, nil)
	dispatcher := NewDispatcher()
	tasks := NewTaskService(store, store, NewTaskStateEngine(), notifier, dispatcher, pusher)

	return &testEnv{
		store:         store,
		pusher:        pusher,
		notifications: notifications,
		notifier:      notifier,
		dispatcher:    dispatcher,
		tasks:         tasks,
	}
}

func (e *testEnv) createTask(t *testing.T, req *models.CreateTaskRequest) *models.Task {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), alice, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	e.dispatcher.Wait()
	return task
}

// notificationsOfType returns stored rows of one type keyed by recipient
func (e *testEnv) notificationsOfType(typ models.NotificationType) map[string][]models.Notification {
	out := make(map[string][]models.Notification)
	for _, n := range e.store.Notifications("") {
		if n.Type == typ {
			out[n.UserID] = append(out[n.UserID], n)
		}
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
