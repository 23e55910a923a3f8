package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"
	"github.com/mithilsmehta/TaskFlow/internal/realtime"

	"github.com/google/uuid"
)

const recentTaskLimit = 10

// TaskService is the tenant-scoped task store. Every mutation commits first and
// then hands notification fan-out to the dispatcher.
type TaskService struct {
	tasks      TaskRepository
	users      UserDirectory
	engine     *TaskStateEngine
	notifier   *Notifier
	dispatcher *Dispatcher
	pusher     Pusher
	now        func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(tasks TaskRepository, users UserDirectory, engine *TaskStateEngine, notifier *Notifier, dispatcher *Dispatcher, pusher Pusher) *TaskService {
	return &TaskService{
		tasks:      tasks,
		users:      users,
		engine:     engine,
		notifier:   notifier,
		dispatcher: dispatcher,
		pusher:     pusher,
		now:        time.Now,
	}
}

// List returns the caller's view of the tenant's tasks. Admins see every task,
// members only those they are assigned to.
func (s *TaskService) List(ctx context.Context, caller models.Identity, status models.TaskStatus) (*models.TaskListResponse, error) {
	if status != "" && !status.Valid() {
		return nil, models.Invalidf("Invalid status")
	}

	tasks, err := s.tasks.ListTasks(ctx, caller.CompanyID, s.visibleTo(caller, status))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	summary := models.StatusSummary{All: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusPending:
			summary.PendingTasks++
		case models.StatusInProgress:
			summary.InProgressTasks++
		case models.StatusCompleted:
			summary.CompletedTasks++
		}
	}

	return &models.TaskListResponse{Tasks: tasks, StatusSummary: summary}, nil
}

// Get returns one task of the caller's company
func (s *TaskService) Get(ctx context.Context, caller models.Identity, taskID string) (*models.Task, error) {
	return s.tasks.GetTask(ctx, caller.CompanyID, taskID)
}

// Create stores a new task. Only admins create tasks.
func (s *TaskService) Create(ctx context.Context, caller models.Identity, req *models.CreateTaskRequest) (*models.Task, error) {
	if !caller.IsAdmin() {
		return nil, models.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, models.Invalidf("title is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, models.Invalidf("invalid priority %q", priority)
	}

	assignees, err := s.validateAssignees(ctx, caller.CompanyID, req.AssignedTo)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		ID:          uuid.New().String(),
		CompanyID:   caller.CompanyID,
		CreatedBy:   caller.UserID,
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		Status:      models.StatusPending,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		AssignedTo:  assignees,
		Attachments: append([]string{}, req.Attachments...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.engine.ReplaceChecklist(task, req.Checklist)

	if err := s.tasks.InsertTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	log.Printf("[TASKS] Created task %s in company=%s by user=%s (assignees=%d)", task.ID, task.CompanyID, caller.UserID, len(task.AssignedTo))

	created := task.Clone()
	s.dispatch(ctx, "task_created:"+task.ID, task.CompanyID, task.ID, "created", func(ctx context.Context) error {
		_, err := s.notifier.NotifyAssigned(ctx, created, caller, created.AssignedTo)
		return err
	})

	return task, nil
}

// Update applies a partial update. Fields the caller may not write are left
// untouched and listed in RejectedFields.
func (s *TaskService) Update(ctx context.Context, caller models.Identity, taskID string, patch *models.TaskPatch) (*models.UpdateTaskResponse, error) {
	task, err := s.tasks.GetTask(ctx, caller.CompanyID, taskID)
	if err != nil {
		return nil, err
	}

	plan, err := s.engine.Plan(task, caller, patch)
	if err != nil {
		return nil, err
	}
	if plan.Allows(FieldAssignedTo) {
		assignees, err := s.validateAssignees(ctx, caller.CompanyID, *patch.AssignedTo)
		if err != nil {
			return nil, err
		}
		patch.AssignedTo = &assignees
	}

	next := task.Clone()
	if err := s.engine.Apply(next, patch, plan); err != nil {
		return nil, err
	}
	if len(plan.Rejected) > 0 {
		log.Printf("[TASKS] Ignored fields %v from user=%s on task %s", plan.Rejected, caller.UserID, task.ID)
	}

	if err := s.commit(ctx, caller, task, next); err != nil {
		return nil, err
	}
	return &models.UpdateTaskResponse{Task: *next, RejectedFields: plan.Rejected}, nil
}

// UpdateStatus is the direct status write used by the board view
func (s *TaskService) UpdateStatus(ctx context.Context, caller models.Identity, taskID string, status models.TaskStatus) (*models.Task, error) {
	task, err := s.writableTask(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	// an omitted status leaves the task as it is
	if status == "" {
		return task, nil
	}

	next := task.Clone()
	if err := s.engine.SetStatus(next, status); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, caller, task, next); err != nil {
		return nil, err
	}
	return next, nil
}

// UpdateChecklist replaces the checklist wholesale and re-derives progress and status
func (s *TaskService) UpdateChecklist(ctx context.Context, caller models.Identity, taskID string, items []models.ChecklistItemInput) (*models.Task, error) {
	task, err := s.writableTask(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	next := task.Clone()
	s.engine.ReplaceChecklist(next, items)
	if err := s.commit(ctx, caller, task, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Delete removes a task. Only admins delete tasks.
func (s *TaskService) Delete(ctx context.Context, caller models.Identity, taskID string) error {
	if !caller.IsAdmin() {
		return models.ErrForbidden
	}

	task, err := s.tasks.DeleteTask(ctx, caller.CompanyID, taskID)
	if err != nil {
		return err
	}
	log.Printf("[TASKS] Deleted task %s in company=%s by user=%s", task.ID, task.CompanyID, caller.UserID)

	s.dispatch(ctx, "task_deleted:"+task.ID, task.CompanyID, task.ID, "deleted", func(ctx context.Context) error {
		_, err := s.notifier.NotifyDeleted(ctx, task, caller)
		return err
	})
	return nil
}

// Dashboard summarizes the whole tenant for admins, or the caller's own
// assignments when mine is set.
func (s *TaskService) Dashboard(ctx context.Context, caller models.Identity, mine bool) (*models.DashboardData, error) {
	filter := models.TaskFilter{}
	if mine {
		filter.Assignee = caller.UserID
	} else if !caller.IsAdmin() {
		return nil, models.ErrForbidden
	}

	tasks, err := s.tasks.ListTasks(ctx, caller.CompanyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dashboard data: %w", err)
	}

	now := s.now()
	data := &models.DashboardData{
		TotalTasks:         len(tasks),
		TaskDistribution:   make(map[string]int),
		TaskPriorityLevels: make(map[string]int),
		RecentTasks:        []models.Task{},
	}
	for _, status := range models.TaskStatuses {
		data.TaskDistribution[strings.ReplaceAll(string(status), " ", "")] = 0
	}
	for _, p := range models.TaskPriorities {
		data.TaskPriorityLevels[string(p)] = 0
	}

	for _, t := range tasks {
		switch t.Status {
		case models.StatusPending:
			data.PendingTasks++
		case models.StatusCompleted:
			data.CompletedTasks++
		}
		if t.Status != models.StatusCompleted && t.DueDate != nil && t.DueDate.Before(now) {
			data.OverdueTasks++
		}
		data.TaskDistribution[strings.ReplaceAll(string(t.Status), " ", "")]++
		data.TaskPriorityLevels[string(t.Priority)]++
	}
	data.TaskDistribution["All"] = len(tasks)

	// listings are newest first
	if len(tasks) > recentTaskLimit {
		tasks = tasks[:recentTaskLimit]
	}
	data.RecentTasks = append(data.RecentTasks, tasks...)

	return data, nil
}

// writableTask loads a task the caller may change as admin or assignee
func (s *TaskService) writableTask(ctx context.Context, caller models.Identity, taskID string) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, caller.CompanyID, taskID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !task.IsAssignee(caller.UserID) {
		return nil, models.ErrForbidden
	}
	return task, nil
}

// commit persists next and schedules the notifications its changes call for
func (s *TaskService) commit(ctx context.Context, caller models.Identity, before, next *models.Task) error {
	if !sameTime(before.DueDate, next.DueDate) {
		next.DueSoonNotifiedAt = nil
	}
	next.UpdatedAt = s.now()

	if err := s.tasks.ReplaceTask(ctx, next); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	changes := diffTasks(before, next)
	if changes.empty() {
		return nil
	}

	after := next.Clone()
	s.dispatch(ctx, "task_updated:"+after.ID, after.CompanyID, after.ID, "updated", func(ctx context.Context) error {
		var errs []error
		if len(changes.AddedAssignees) > 0 {
			if _, err := s.notifier.NotifyAssigned(ctx, after, caller, changes.AddedAssignees); err != nil {
				errs = append(errs, err)
			}
		}
		if changes.Completed {
			if _, err := s.notifier.NotifyCompleted(ctx, after, caller); err != nil {
				errs = append(errs, err)
			}
			if changes.detailsChanged() {
				if _, err := s.notifier.NotifyUpdated(ctx, after, caller, changes.updateType(after)); err != nil {
					errs = append(errs, err)
				}
			}
		} else if changes.anyChanged() {
			if _, err := s.notifier.NotifyUpdated(ctx, after, caller, changes.updateType(after)); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	return nil
}

// dispatch runs the fan-out job in the background, then hints the tenant scope
func (s *TaskService) dispatch(ctx context.Context, name, companyID, taskID, action string, job func(ctx context.Context) error) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Go(ctx, name, func(ctx context.Context) error {
		err := job(ctx)
		if s.pusher != nil {
			s.pusher.PushToCompany(companyID, realtime.EventTaskChanged, realtime.TaskChange{TaskID: taskID, Action: action})
		}
		return err
	})
}

// validateAssignees requires every distinct id to resolve to a user of the company
func (s *TaskService) validateAssignees(ctx context.Context, companyID string, ids []string) ([]string, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	count, err := s.users.CountInCompany(ctx, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignees: %w", err)
	}
	if count != len(ids) {
		return nil, models.Invalidf("One or more assignees are not in your company")
	}
	return ids, nil
}

func (s *TaskService) visibleTo(caller models.Identity, status models.TaskStatus) models.TaskFilter {
	filter := models.TaskFilter{Status: status}
	if !caller.IsAdmin() {
		filter.Assignee = caller.UserID
	}
	return filter
}
