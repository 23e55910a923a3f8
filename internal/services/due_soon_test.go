package services

import (
	"context"
	"testing"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"
)

func TestDueSoonSweeper_Sweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	soon := now.Add(2 * time.Hour)
	later := now.Add(72 * time.Hour)
	past := now.Add(-2 * time.Hour)

	dueSoon := env.createTask(t, &models.CreateTaskRequest{Title: "Soon", DueDate: &soon, AssignedTo: []string{bob.UserID, carol.UserID}})
	env.createTask(t, &models.CreateTaskRequest{Title: "Later", DueDate: &later, AssignedTo: []string{bob.UserID}})
	env.createTask(t, &models.CreateTaskRequest{Title: "Overdue", DueDate: &past, AssignedTo: []string{bob.UserID}})
	env.createTask(t, &models.CreateTaskRequest{Title: "Unassigned", DueDate: &soon})
	finished := env.createTask(t, &models.CreateTaskRequest{Title: "Finished", DueDate: &soon, AssignedTo: []string{bob.UserID}})
	if _, err := env.tasks.UpdateStatus(ctx, alice, finished.ID, models.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	env.dispatcher.Wait()

	sweeper := NewDueSoonSweeper(env.store, env.notifier, 24*time.Hour)
	sweeper.now = func() time.Time { return now }

	reminded, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if reminded != 1 {
		t.Fatalf("reminded %d tasks, want 1", reminded)
	}

	rows := env.notificationsOfType(models.NotificationTaskDueSoon)
	if len(rows) != 2 || len(rows[bob.UserID]) != 1 || len(rows[carol.UserID]) != 1 {
		t.Fatalf("due-soon notifications = %+v", rows)
	}
	if rows[bob.UserID][0].TaskID != dueSoon.ID {
		t.Errorf("reminder for wrong task: %s", rows[bob.UserID][0].TaskID)
	}

	again, err := sweeper.Sweep(ctx)
	if err != nil || again != 0 {
		t.Errorf("second sweep reminded %d (%v), want 0", again, err)
	}
}

func TestDueSoonSweeper_Schedule(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewDueSoonSweeper(env.store, env.notifier, time.Hour)

	if _, err := sweeper.Schedule("0 */15 * * * *"); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
	if _, err := sweeper.Schedule("every now and then"); err == nil {
		t.Error("invalid spec accepted")
	}

	sweeper.Start()
	sweeper.Stop()
}
