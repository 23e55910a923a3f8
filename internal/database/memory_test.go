package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"
)

func TestMemoryStore_TasksAreCompanyScoped(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, task := range []models.Task{
		{ID: "t1", CompanyID: "c1", Status: models.StatusPending, AssignedTo: []string{"u1"}},
		{ID: "t2", CompanyID: "c1", Status: models.StatusCompleted, AssignedTo: []string{"u2"}},
		{ID: "t3", CompanyID: "c2", Status: models.StatusPending, AssignedTo: []string{"u1"}},
	} {
		task.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := m.InsertTask(ctx, &task); err != nil {
			t.Fatalf("InsertTask: %v", err)
		}
	}

	all, _ := m.ListTasks(ctx, "c1", models.TaskFilter{})
	if len(all) != 2 || all[0].ID != "t2" || all[1].ID != "t1" {
		t.Errorf("ListTasks = %+v, want t2, t1", all)
	}
	mine, _ := m.ListTasks(ctx, "c1", models.TaskFilter{Assignee: "u1"})
	if len(mine) != 1 || mine[0].ID != "t1" {
		t.Errorf("assignee filter = %+v", mine)
	}
	done, _ := m.ListTasks(ctx, "c1", models.TaskFilter{Status: models.StatusCompleted})
	if len(done) != 1 || done[0].ID != "t2" {
		t.Errorf("status filter = %+v", done)
	}

	if _, err := m.GetTask(ctx, "c2", "t1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("cross-company GetTask: %v", err)
	}
	if err := m.ReplaceTask(ctx, &models.Task{ID: "t1", CompanyID: "c2"}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("cross-company ReplaceTask: %v", err)
	}
	if _, err := m.DeleteTask(ctx, "c2", "t1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("cross-company DeleteTask: %v", err)
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	task := &models.Task{ID: "t1", CompanyID: "c1", Title: "a", AssignedTo: []string{"u1"}}
	_ = m.InsertTask(ctx, task)

	task.Title = "mutated"
	got, _ := m.GetTask(ctx, "c1", "t1")
	got.AssignedTo[0] = "u9"

	again, _ := m.GetTask(ctx, "c1", "t1")
	if again.Title != "a" || again.AssignedTo[0] != "u1" {
		t.Errorf("store shares memory with callers: %+v", again)
	}
}

func TestMemoryStore_Users(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	_ = m.UpsertUser(ctx, models.User{ID: "a2", Role: models.RoleAdmin, CompanyID: "c1"})
	_ = m.UpsertUser(ctx, models.User{ID: "a1", Role: models.RoleAdmin, CompanyID: "c1"})
	_ = m.UpsertUser(ctx, models.User{ID: "m1", Role: models.RoleMember, CompanyID: "c1"})
	_ = m.UpsertUser(ctx, models.User{ID: "x1", Role: models.RoleAdmin, CompanyID: "c2"})

	count, _ := m.CountInCompany(ctx, "c1", []string{"a1", "m1", "x1", "ghost"})
	if count != 2 {
		t.Errorf("CountInCompany = %d, want 2", count)
	}

	admins, _ := m.ListAdmins(ctx, "c1")
	if len(admins) != 2 || admins[0].ID != "a1" || admins[1].ID != "a2" {
		t.Errorf("ListAdmins = %+v", admins)
	}

	if u, err := m.GetUser(ctx, "c1", "m1"); err != nil || u.Role != models.RoleMember {
		t.Errorf("GetUser = %+v, %v", u, err)
	}
	if _, err := m.GetUser(ctx, "c2", "m1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("cross-company GetUser: %v", err)
	}
}
