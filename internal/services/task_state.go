package services

import (
	"strings"

	"github.com/mithilsmehta/TaskFlow/internal/models"

	"github.com/google/uuid"
)

// Field names a writable task attribute, spelled as in request bodies
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPriority    Field = "priority"
	FieldStartDate   Field = "startDate"
	FieldDueDate     Field = "dueDate"
	FieldAssignedTo  Field = "assignedTo"
	FieldAttachments Field = "attachments"
	FieldStatus      Field = "status"
	FieldChecklist   Field = "todoChecklist"
	FieldProgress    Field = "progress"
)

// fieldRule says who may write a field
type fieldRule struct {
	admin    bool
	assignee bool
}

// fieldPolicy is the role × field whitelist consulted before any patch is applied.
// Progress follows status: the board view moves both together.
var fieldPolicy = map[Field]fieldRule{
	FieldTitle:       {admin: true},
	FieldDescription: {admin: true},
	FieldPriority:    {admin: true},
	FieldStartDate:   {admin: true},
	FieldDueDate:     {admin: true},
	FieldAssignedTo:  {admin: true},
	FieldAttachments: {admin: true},
	FieldStatus:      {admin: true, assignee: true},
	FieldChecklist:   {admin: true, assignee: true},
	FieldProgress:    {admin: true, assignee: true},
}

// PatchPlan is the outcome of checking a patch against the field policy
type PatchPlan struct {
	allowed  map[Field]bool
	Rejected []string
}

// Allows reports whether the field may be written by this caller
func (p *PatchPlan) Allows(f Field) bool {
	return p.allowed[f]
}

// Derivation is the checklist-derived state of a task
type Derivation struct {
	Completed int
	Total     int
	Progress  int
	Status    models.TaskStatus
}

// DeriveFromChecklist computes progress and status from checklist items.
// ok is false for an empty checklist, in which case nothing is derived.
func DeriveFromChecklist(items []models.ChecklistItem) (d Derivation, ok bool) {
	d.Total = len(items)
	if d.Total == 0 {
		return d, false
	}
	for _, item := range items {
		if item.Done {
			d.Completed++
		}
	}

	// round half up without floating point
	d.Progress = (200*d.Completed + d.Total) / (2 * d.Total)

	switch {
	case d.Completed == d.Total:
		d.Status = models.StatusCompleted
	case d.Completed > 0:
		d.Status = models.StatusInProgress
	default:
		d.Status = models.StatusPending
	}
	return d, true
}

// TaskStateEngine owns every write to a task's status, progress and checklist,
// and decides which fields a caller may touch.
type TaskStateEngine struct {
	newID func() string
}

// NewTaskStateEngine creates the engine
func NewTaskStateEngine() *TaskStateEngine {
	return &TaskStateEngine{newID: func() string { return uuid.New().String() }}
}

// Plan checks the fields present in patch against the caller's role and
// membership. Admins may write everything. Assignees get the status subset and
// the rest is listed in Rejected. Anyone else is forbidden outright.
func (e *TaskStateEngine) Plan(task *models.Task, caller models.Identity, patch *models.TaskPatch) (*PatchPlan, error) {
	isAdmin := caller.IsAdmin()
	isAssignee := task.IsAssignee(caller.UserID)
	if !isAdmin && !isAssignee {
		return nil, models.ErrForbidden
	}

	plan := &PatchPlan{allowed: make(map[Field]bool)}
	for _, f := range presentFields(patch) {
		rule := fieldPolicy[f]
		if (isAdmin && rule.admin) || (isAssignee && rule.assignee) {
			plan.allowed[f] = true
		} else {
			plan.Rejected = append(plan.Rejected, string(f))
		}
	}
	return plan, nil
}

// Apply writes the allowed fields of patch onto task. Validation happens
// before the first write, so a returned error leaves task untouched.
//
// Order matters: plain fields, then direct status, then the checklist (whose
// derivation overrides the direct status), then raw progress.
func (e *TaskStateEngine) Apply(task *models.Task, patch *models.TaskPatch, plan *PatchPlan) error {
	if err := e.validate(patch, plan); err != nil {
		return err
	}

	if plan.Allows(FieldTitle) {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if plan.Allows(FieldDescription) {
		task.Description = *patch.Description
	}
	if plan.Allows(FieldPriority) {
		task.Priority = *patch.Priority
	}
	if plan.Allows(FieldStartDate) {
		task.StartDate = patch.StartDate
	}
	if plan.Allows(FieldDueDate) {
		task.DueDate = patch.DueDate
	}
	if plan.Allows(FieldAssignedTo) {
		task.AssignedTo = uniqueIDs(*patch.AssignedTo)
	}
	if plan.Allows(FieldAttachments) {
		task.Attachments = append([]string{}, (*patch.Attachments)...)
	}
	if plan.Allows(FieldStatus) {
		task.Status = *patch.Status
	}
	if plan.Allows(FieldChecklist) {
		e.ReplaceChecklist(task, *patch.Checklist)
	}
	if plan.Allows(FieldProgress) {
		task.Progress = *patch.Progress
	}
	return nil
}

func (e *TaskStateEngine) validate(patch *models.TaskPatch, plan *PatchPlan) error {
	if plan.Allows(FieldTitle) && strings.TrimSpace(*patch.Title) == "" {
		return models.Invalidf("title is required")
	}
	if plan.Allows(FieldPriority) && !patch.Priority.Valid() {
		return models.Invalidf("invalid priority %q", *patch.Priority)
	}
	if plan.Allows(FieldStatus) && !patch.Status.Valid() {
		return models.Invalidf("Invalid status")
	}
	if plan.Allows(FieldProgress) && (*patch.Progress < 0 || *patch.Progress > 100) {
		return models.Invalidf("progress must be between 0 and 100")
	}
	return nil
}

// SetStatus is the direct status write path. It never touches the checklist.
func (e *TaskStateEngine) SetStatus(task *models.Task, status models.TaskStatus) error {
	if !status.Valid() {
		return models.Invalidf("Invalid status")
	}
	task.Status = status
	return nil
}

// ReplaceChecklist swaps the whole checklist and, when it is non-empty,
// re-derives progress and status from it.
func (e *TaskStateEngine) ReplaceChecklist(task *models.Task, items []models.ChecklistItemInput) {
	task.Checklist = e.NormalizeChecklist(items)
	if d, ok := DeriveFromChecklist(task.Checklist); ok {
		task.Progress = d.Progress
		task.Status = d.Status
	}
}

// NormalizeChecklist keeps item ids that were sent and generates the rest
func (e *TaskStateEngine) NormalizeChecklist(items []models.ChecklistItemInput) []models.ChecklistItem {
	out := make([]models.ChecklistItem, 0, len(items))
	for _, in := range items {
		id := strings.TrimSpace(in.ID)
		if id == "" {
			id = e.newID()
		}
		out = append(out, models.ChecklistItem{ID: id, Text: in.Text, Done: in.Done})
	}
	return out
}

func presentFields(p *models.TaskPatch) []Field {
	var fields []Field
	add := func(present bool, f Field) {
		if present {
			fields = append(fields, f)
		}
	}
	add(p.Title != nil, FieldTitle)
	add(p.Description != nil, FieldDescription)
	add(p.Priority != nil, FieldPriority)
	add(p.StartDate != nil, FieldStartDate)
	add(p.DueDate != nil, FieldDueDate)
	add(p.AssignedTo != nil, FieldAssignedTo)
	add(p.Attachments != nil, FieldAttachments)
	add(p.Status != nil, FieldStatus)
	add(p.Checklist != nil, FieldChecklist)
	add(p.Progress != nil, FieldProgress)
	return fields
}

// uniqueIDs trims and de-duplicates ids, keeping first-seen order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
