package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/models"
)

// taskChanges is the difference between a task before and after a mutation
type taskChanges struct {
	AddedAssignees   []string
	RemovedAssignees []string

	Status      bool
	Priority    bool
	DueDate     bool
	Title       bool
	Description bool
	StartDate   bool
	Attachments bool
	Checklist   bool
	Progress    bool

	// Completed is set when the status moved into Completed
	Completed bool
}

func diffTasks(before, after *models.Task) taskChanges {
	var c taskChanges
	for _, id := range after.AssignedTo {
		if !before.IsAssignee(id) {
			c.AddedAssignees = append(c.AddedAssignees, id)
		}
	}
	for _, id := range before.AssignedTo {
		if !after.IsAssignee(id) {
			c.RemovedAssignees = append(c.RemovedAssignees, id)
		}
	}

	c.Status = before.Status != after.Status
	c.Priority = before.Priority != after.Priority
	c.DueDate = !sameTime(before.DueDate, after.DueDate)
	c.Title = before.Title != after.Title
	c.Description = before.Description != after.Description
	c.StartDate = !sameTime(before.StartDate, after.StartDate)
	c.Attachments = !slices.Equal(before.Attachments, after.Attachments)
	c.Checklist = !slices.Equal(before.Checklist, after.Checklist)
	c.Progress = before.Progress != after.Progress
	c.Completed = c.Status && after.Status == models.StatusCompleted
	return c
}

// detailsChanged covers the edits that still deserve an update notice when the
// same mutation also completed the task
func (c taskChanges) detailsChanged() bool {
	return c.Priority || c.DueDate || c.Title || c.Description || c.StartDate || c.Attachments
}

func (c taskChanges) anyChanged() bool {
	return c.Status || c.Checklist || c.Progress || c.detailsChanged()
}

// empty reports a mutation that left the task as it was
func (c taskChanges) empty() bool {
	return len(c.AddedAssignees) == 0 && len(c.RemovedAssignees) == 0 && !c.anyChanged()
}

// updateType is the short phrase appended to an update message
func (c taskChanges) updateType(after *models.Task) string {
	switch {
	case c.Status && !c.Completed:
		return fmt.Sprintf("status changed to %s", after.Status)
	case c.Priority:
		return fmt.Sprintf("priority changed to %s", after.Priority)
	case c.DueDate:
		return "due date changed"
	case c.Title:
		return "title changed"
	default:
		return "details updated"
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
