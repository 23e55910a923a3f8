package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DueSoonSweeper periodically reminds assignees of tasks whose due date is near.
// Each task is reminded once per due date.
type DueSoonSweeper struct {
	tasks    TaskRepository
	notifier *Notifier
	window   time.Duration
	cron     *cron.Cron
	now      func() time.Time
}

// NewDueSoonSweeper creates a sweeper; call Schedule and Start to run it
func NewDueSoonSweeper(tasks TaskRepository, notifier *Notifier, window time.Duration) *DueSoonSweeper {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &DueSoonSweeper{
		tasks:    tasks,
		notifier: notifier,
		window:   window,
		cron:     c,
		now:      time.Now,
	}
}

// Schedule registers the sweep on a cron spec with a seconds field
func (s *DueSoonSweeper) Schedule(spec string) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			log.Printf("[DUE-SOON] Sweep failed: %v", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to schedule due-soon sweep %q: %w", spec, err)
	}
	log.Printf("[DUE-SOON] Scheduled sweep: spec=%s, window=%s", spec, s.window)
	return id, nil
}

// Start starts the cron scheduler
func (s *DueSoonSweeper) Start() {
	s.cron.Start()
	log.Println("[DUE-SOON] Cron scheduler started")
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *DueSoonSweeper) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[DUE-SOON] Cron scheduler stopped")
}

// Sweep reminds every task due within the window and returns how many tasks
// were reminded. A task whose notifications fail is not stamped, so the next
// sweep tries again.
func (s *DueSoonSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	tasks, err := s.tasks.ListDueSoon(ctx, now, now.Add(s.window))
	if err != nil {
		return 0, fmt.Errorf("failed to list due tasks: %w", err)
	}

	reminded := 0
	for i := range tasks {
		task := &tasks[i]
		if _, err := s.notifier.NotifyDueSoon(ctx, task); err != nil {
			log.Printf("[DUE-SOON] Failed to notify task %s: %v", task.ID, err)
			continue
		}
		if err := s.tasks.MarkDueSoonNotified(ctx, task.CompanyID, task.ID, now); err != nil {
			log.Printf("[DUE-SOON] Failed to stamp task %s: %v", task.ID, err)
			continue
		}
		reminded++
	}

	if reminded > 0 {
		log.Printf("[DUE-SOON] Reminded %d of %d due tasks", reminded, len(tasks))
	}
	return reminded, nil
}
