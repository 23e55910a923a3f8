package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/database"
	"github.com/mithilsmehta/TaskFlow/internal/models"
	"github.com/mithilsmehta/TaskFlow/internal/realtime"
	"github.com/mithilsmehta/TaskFlow/internal/services"

	"github.com/gin-gonic/gin"
)

var (
	admin  = models.Identity{UserID: "u-admin", Name: "Alice", Role: models.RoleAdmin, CompanyID: "acme"}
	member = models.Identity{UserID: "u-bob", Name: "Bob", Role: models.RoleMember, CompanyID: "acme"}
	other  = models.Identity{UserID: "u-carl", Name: "Carl", Role: models.RoleMember, CompanyID: "acme"}
	rival  = models.Identity{UserID: "u-rita", Name: "Rita", Role: models.RoleAdmin, CompanyID: "globex"}
)

type testServer struct {
	router     *gin.Engine
	jwt        *services.JWTService
	tasks      *services.TaskService
	dispatcher *services.Dispatcher
	hub        *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := database.NewMemoryStore()
	for _, id := range []models.Identity{admin, member, other, rival} {
		_ = store.UpsertUser(context.Background(), models.User{ID: id.UserID, Name: id.Name, Role: id.Role, CompanyID: id.CompanyID})
	}

	hub := realtime.NewHub(realtime.NewRegistry())
	jwtService := services.NewJWTService("test-secret", time.Hour)
	notificationService := services.NewNotificationService(store)
	notifier := services.NewNotifier(notificationService, store, hub, nil)
	dispatcher := services.NewDispatcher()
	taskService := services.NewTaskService(store, store, services.NewTaskStateEngine(), notifier, dispatcher, hub)

	handlers := NewHandlers(taskService, notificationService, jwtService, store, nil, hub)
	router := SetupRoutes(handlers, RouterOptions{CORSOrigin: "http://localhost:5173", MockAuthEnabled: true})

	t.Cleanup(func() {
		dispatcher.Wait()
		hub.Close()
	})

	return &testServer{router: router, jwt: jwtService, tasks: taskService, dispatcher: dispatcher, hub: hub}
}

func (s *testServer) token(t *testing.T, id models.Identity) string {
	t.Helper()
	token, err := s.jwt.GenerateToken(id)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

// do performs a request as caller (zero identity means anonymous) and decodes the JSON body into out
func (s *testServer) do(t *testing.T, caller models.Identity, method, path string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller.UserID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, caller))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (s *testServer) createTask(t *testing.T, body map[string]any) models.Task {
	t.Helper()
	var task models.Task
	if code := s.do(t, admin, http.MethodPost, "/api/tasks", body, &task); code != http.StatusCreated {
		t.Fatalf("create task: status %d", code)
	}
	s.dispatcher.Wait()
	return task
}

func TestTaskRoutes_RequireAuth(t *testing.T) {
	s := newTestServer(t)
	if code := s.do(t, models.Identity{}, http.MethodGet, "/api/tasks", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous list: %d", code)
	}
	if code := s.do(t, models.Identity{}, http.MethodGet, "/api/notifications", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous notifications: %d", code)
	}
}

func TestCreateTask(t *testing.T) {
	s := newTestServer(t)

	task := s.createTask(t, map[string]any{
		"title":         "Ship v1",
		"priority":      "High",
		"dueDate":       "2030-01-01T00:00:00Z",
		"assignedTo":    []string{member.UserID},
		"todoChecklist": []map[string]any{{"text": "build", "done": true}, {"text": "test", "done": false}},
		"attachments":   []string{"https://cdn.example/spec.pdf"},
	})

	if task.ID == "" || task.CompanyID != admin.CompanyID || task.CreatedBy != admin.UserID {
		t.Errorf("unexpected identity fields: %+v", task)
	}
	if task.Status != models.StatusInProgress || task.Progress != 50 || task.Priority != models.PriorityHigh {
		t.Errorf("unexpected state: status=%q progress=%d priority=%q", task.Status, task.Progress, task.Priority)
	}

	var body map[string]any
	if code := s.do(t, member, http.MethodPost, "/api/tasks", map[string]any{"title": "x"}, &body); code != http.StatusForbidden {
		t.Errorf("member create: %d", code)
	}

	code := s.do(t, admin, http.MethodPost, "/api/tasks", map[string]any{
		"title":      "Leak",
		"assignedTo": []string{rival.UserID},
	}, &body)
	if code != http.StatusBadRequest || body["message"] != "One or more assignees are not in your company" {
		t.Errorf("foreign assignee: %d %v", code, body)
	}

	if code := s.do(t, admin, http.MethodPost, "/api/tasks", map[string]any{"title": ""}, nil); code != http.StatusBadRequest {
		t.Errorf("blank title: %d", code)
	}
}

func TestListAndGetTasks(t *testing.T) {
	s := newTestServer(t)
	mine := s.createTask(t, map[string]any{"title": "Mine", "assignedTo": []string{member.UserID}})
	s.createTask(t, map[string]any{"title": "Theirs", "assignedTo": []string{other.UserID}})

	var list models.TaskListResponse
	if code := s.do(t, member, http.MethodGet, "/api/tasks", nil, &list); code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].ID != mine.ID || list.StatusSummary.All != 1 {
		t.Errorf("member list = %+v", list)
	}

	if code := s.do(t, admin, http.MethodGet, "/api/tasks?status=Pending", nil, &list); code != http.StatusOK {
		t.Fatalf("admin list: %d", code)
	}
	if list.StatusSummary.PendingTasks != 2 {
		t.Errorf("admin summary = %+v", list.StatusSummary)
	}

	if code := s.do(t, admin, http.MethodGet, "/api/tasks?status=Done", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad status filter: %d", code)
	}

	var got models.Task
	if code := s.do(t, member, http.MethodGet, "/api/tasks/"+mine.ID, nil, &got); code != http.StatusOK || got.Title != "Mine" {
		t.Errorf("get: %d %+v", code, got)
	}

	var body map[string]any
	if code := s.do(t, rival, http.MethodGet, "/api/tasks/"+mine.ID, nil, &body); code != http.StatusNotFound || body["message"] != "Task not found" {
		t.Errorf("cross-tenant get: %d %v", code, body)
	}
}

func TestTaskResponses_EncodeEmptyLists(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]any{"title": "Bare"})

	wantEmpty := func(t *testing.T, where string, fields map[string]json.RawMessage) {
		t.Helper()
		for _, key := range []string{"assignedTo", "todoChecklist", "attachments"} {
			if got := string(fields[key]); got != "[]" {
				t.Errorf("%s %s = %s, want []", where, key, got)
			}
		}
	}

	var got map[string]json.RawMessage
	if code := s.do(t, admin, http.MethodGet, "/api/tasks/"+task.ID, nil, &got); code != http.StatusOK {
		t.Fatalf("get: %d", code)
	}
	wantEmpty(t, "get", got)

	var list struct {
		Tasks []map[string]json.RawMessage `json:"tasks"`
	}
	if code := s.do(t, admin, http.MethodGet, "/api/tasks", nil, &list); code != http.StatusOK || len(list.Tasks) != 1 {
		t.Fatalf("list: %d %d tasks", code, len(list.Tasks))
	}
	wantEmpty(t, "list", list.Tasks[0])

	var updated map[string]json.RawMessage
	if code := s.do(t, admin, http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"priority": "High"}, &updated); code != http.StatusOK {
		t.Fatalf("update: %d", code)
	}
	wantEmpty(t, "update", updated)
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]any{"title": "Original", "assignedTo": []string{member.UserID}})

	var updated struct {
		models.Task
		RejectedFields []string `json:"rejectedFields"`
	}
	code := s.do(t, member, http.MethodPut, "/api/tasks/"+task.ID, map[string]any{
		"title":  "Hijacked",
		"status": "In Progress",
	}, &updated)
	if code != http.StatusOK {
		t.Fatalf("member update: %d", code)
	}
	if updated.Title != "Original" || updated.Status != models.StatusInProgress {
		t.Errorf("member update result = %+v", updated.Task)
	}
	if len(updated.RejectedFields) != 1 || updated.RejectedFields[0] != "title" {
		t.Errorf("rejectedFields = %v", updated.RejectedFields)
	}

	if code := s.do(t, other, http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"status": "Completed"}, nil); code != http.StatusForbidden {
		t.Errorf("non-assignee update: %d", code)
	}

	var body map[string]any
	if code := s.do(t, admin, http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"status": "Done"}, &body); code != http.StatusBadRequest || body["message"] != "Invalid status" {
		t.Errorf("invalid status: %d %v", code, body)
	}

	if code := s.do(t, admin, http.MethodPut, "/api/tasks/"+task.ID, []string{"not", "an", "object"}, nil); code != http.StatusBadRequest {
		t.Errorf("malformed body: %d", code)
	}
}

func TestStatusAndChecklistRoutes(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]any{"title": "Board", "assignedTo": []string{member.UserID}})

	var got models.Task
	if code := s.do(t, member, http.MethodPut, "/api/tasks/"+task.ID+"/status", map[string]any{"status": "Completed"}, &got); code != http.StatusOK {
		t.Fatalf("status: %d", code)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}

	var checklist struct {
		Message string      `json:"message"`
		Task    models.Task `json:"task"`
	}
	code := s.do(t, member, http.MethodPut, "/api/tasks/"+task.ID+"/todo", map[string]any{
		"todoChecklist": []map[string]any{{"text": "a", "done": true}, {"text": "b", "done": false}, {"text": "c", "done": false}},
	}, &checklist)
	if code != http.StatusOK || checklist.Message != "Checklist updated" {
		t.Fatalf("todo: %d %+v", code, checklist)
	}
	if checklist.Task.Status != models.StatusInProgress || checklist.Task.Progress != 33 {
		t.Errorf("derived state = %q %d", checklist.Task.Status, checklist.Task.Progress)
	}

	var unchanged models.Task
	if code := s.do(t, member, http.MethodPut, "/api/tasks/"+task.ID+"/status", map[string]any{}, &unchanged); code != http.StatusOK {
		t.Fatalf("empty status body: %d", code)
	}
	if unchanged.Status != models.StatusInProgress || unchanged.Progress != 33 {
		t.Errorf("empty status body changed the task: %q %d", unchanged.Status, unchanged.Progress)
	}

	if code := s.do(t, other, http.MethodPut, "/api/tasks/"+task.ID+"/todo", map[string]any{"todoChecklist": []any{}}, nil); code != http.StatusForbidden {
		t.Errorf("non-assignee todo: %d", code)
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]any{"title": "Old", "assignedTo": []string{member.UserID}})

	if code := s.do(t, member, http.MethodDelete, "/api/tasks/"+task.ID, nil, nil); code != http.StatusForbidden {
		t.Errorf("member delete: %d", code)
	}
	if code := s.do(t, rival, http.MethodDelete, "/api/tasks/"+task.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("cross-tenant delete: %d", code)
	}

	var body map[string]any
	if code := s.do(t, admin, http.MethodDelete, "/api/tasks/"+task.ID, nil, &body); code != http.StatusOK || body["message"] != "Task deleted" {
		t.Errorf("delete: %d %v", code, body)
	}
	if code := s.do(t, admin, http.MethodGet, "/api/tasks/"+task.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("get after delete: %d", code)
	}
}

func TestDashboards(t *testing.T) {
	s := newTestServer(t)
	s.createTask(t, map[string]any{"title": "One", "assignedTo": []string{member.UserID}})
	s.createTask(t, map[string]any{"title": "Two", "priority": "Low"})

	var data models.DashboardData
	if code := s.do(t, admin, http.MethodGet, "/api/tasks/dashboard-data", nil, &data); code != http.StatusOK {
		t.Fatalf("admin dashboard: %d", code)
	}
	if data.TotalTasks != 2 || data.TaskDistribution["All"] != 2 || data.TaskPriorityLevels["Low"] != 1 {
		t.Errorf("admin dashboard = %+v", data)
	}

	if code := s.do(t, member, http.MethodGet, "/api/tasks/dashboard-data", nil, nil); code != http.StatusForbidden {
		t.Errorf("member admin dashboard: %d", code)
	}

	if code := s.do(t, member, http.MethodGet, "/api/tasks/user-dashboard-data", nil, &data); code != http.StatusOK {
		t.Fatalf("user dashboard: %d", code)
	}
	if data.TotalTasks != 1 {
		t.Errorf("user dashboard total = %d", data.TotalTasks)
	}
}

func TestTaskAttachments(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]any{
		"title":       "Files",
		"attachments": []string{"https://cdn.example/a.png", "uploads/b.pdf"},
	})

	var links []models.AttachmentLink
	if code := s.do(t, admin, http.MethodGet, "/api/tasks/"+task.ID+"/attachments", nil, &links); code != http.StatusOK {
		t.Fatalf("attachments: %d", code)
	}
	if len(links) != 2 || links[0].URL != "https://cdn.example/a.png" || links[1].URL != "" {
		t.Errorf("links = %+v", links)
	}
}

func TestNotificationRoutes(t *testing.T) {
	s := newTestServer(t)
	s.createTask(t, map[string]any{"title": "First", "assignedTo": []string{member.UserID}})
	s.createTask(t, map[string]any{"title": "Second", "assignedTo": []string{member.UserID}})

	var list models.NotificationList
	if code := s.do(t, member, http.MethodGet, "/api/notifications", nil, &list); code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	if len(list.Notifications) != 2 || list.UnreadCount != 2 {
		t.Fatalf("list = %+v", list)
	}

	var page models.NotificationList
	s.do(t, member, http.MethodGet, "/api/notifications?limit=1&skip=1", nil, &page)
	if len(page.Notifications) != 1 || page.UnreadCount != 2 {
		t.Errorf("paged list = %+v", page)
	}

	target := list.Notifications[0].ID
	var marked struct {
		Message      string              `json:"message"`
		Notification models.Notification `json:"notification"`
	}
	if code := s.do(t, member, http.MethodPut, "/api/notifications/"+target+"/read", nil, &marked); code != http.StatusOK {
		t.Fatalf("mark read: %d", code)
	}
	if !marked.Notification.Read || marked.Notification.ReadAt == nil {
		t.Errorf("mark read result = %+v", marked.Notification)
	}
	if code := s.do(t, member, http.MethodPut, "/api/notifications/"+target+"/read", nil, nil); code != http.StatusOK {
		t.Errorf("repeat mark read: %d", code)
	}
	if code := s.do(t, admin, http.MethodPut, "/api/notifications/"+target+"/read", nil, nil); code != http.StatusNotFound {
		t.Errorf("foreign mark read: %d", code)
	}

	var count struct {
		Count int64 `json:"count"`
	}
	s.do(t, member, http.MethodGet, "/api/notifications/unread-count", nil, &count)
	if count.Count != 1 {
		t.Errorf("unread count = %d, want 1", count.Count)
	}

	s.do(t, member, http.MethodGet, "/api/notifications?unreadOnly=true", nil, &page)
	if len(page.Notifications) != 1 {
		t.Errorf("unreadOnly list = %d", len(page.Notifications))
	}

	if code := s.do(t, member, http.MethodPut, "/api/notifications/read-all", nil, nil); code != http.StatusOK {
		t.Errorf("read all: %d", code)
	}
	s.do(t, member, http.MethodGet, "/api/notifications/unread-count", nil, &count)
	if count.Count != 0 {
		t.Errorf("unread count after read-all = %d", count.Count)
	}

	if code := s.do(t, member, http.MethodDelete, "/api/notifications/"+target, nil, nil); code != http.StatusOK {
		t.Errorf("delete: %d", code)
	}
	if code := s.do(t, member, http.MethodDelete, "/api/notifications/"+target, nil, nil); code != http.StatusOK {
		t.Errorf("repeat delete: %d", code)
	}
	s.do(t, member, http.MethodGet, "/api/notifications", nil, &list)
	if len(list.Notifications) != 1 {
		t.Errorf("notifications after delete = %d", len(list.Notifications))
	}
}

func TestMockToken(t *testing.T) {
	s := newTestServer(t)

	var resp models.AuthResponse
	code := s.do(t, models.Identity{}, http.MethodPost, "/api/auth/mock-token", map[string]any{
		"userId":    "u-new",
		"name":      "Nina",
		"role":      "member",
		"companyId": "acme",
	}, &resp)
	if code != http.StatusOK || resp.Token == "" {
		t.Fatalf("mock token: %d %+v", code, resp)
	}

	claims, err := s.jwt.ValidateToken(resp.Token)
	if err != nil || claims.UserID != "u-new" || claims.CompanyID != "acme" || claims.Role != models.RoleMember {
		t.Errorf("claims = %+v, %v", claims, err)
	}

	// the new user is now a valid assignee
	s.createTask(t, map[string]any{"title": "Welcome", "assignedTo": []string{"u-new"}})

	if code := s.do(t, models.Identity{}, http.MethodPost, "/api/auth/mock-token", map[string]any{
		"userId": "u-x", "name": "X", "role": "owner", "companyId": "acme",
	}, nil); code != http.StatusBadRequest {
		t.Errorf("bad role: %d", code)
	}
}

func TestMockToken_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub(realtime.NewRegistry())
	handlers := NewHandlers(nil, nil, services.NewJWTService("x", time.Hour), nil, nil, hub)
	router := SetupRoutes(handlers, RouterOptions{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/mock-token", bytes.NewReader([]byte("{}"))))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}
