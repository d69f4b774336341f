package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-tracker/internal/apperr"
	"task-tracker/internal/auth"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

// TaskInput is the data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Department  string
	AssignedTo  *string
	Status      model.Status   // defaults to not_started
	Priority    model.Priority // defaults to medium
	DueDate     *time.Time
	Tags        []string
	Attachments []string
}

// TaskUpdate carries a partial task update. Nil fields are left alone;
// Attachments are appended, never replaced.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Status         *model.Status
	Priority       *model.Priority
	AssignedTo     *string
	DueDate        *time.Time
	CompletionTime *float64
	Tags           []string
	Attachments    []string
}

// TaskService enforces the task lifecycle, visibility scoping and the
// change-log invariant on top of the task repository.
type TaskService struct {
	tasks *repository.TaskRepository
}

func NewTaskService(tasks *repository.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

// Create stores a new task with the creation entry already in the change
// log. Requires create_task.
func (s *TaskService) Create(ctx context.Context, actor *model.User, input TaskInput) (*model.Task, error) {
	if err := auth.Require(actor, auth.PermCreateTask); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.Validationf("title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperr.Validationf("description is required")
	}
	if !model.ValidDepartment(input.Department) {
		return nil, apperr.Validationf("unknown department %q", input.Department)
	}

	status := input.Status
	if status == "" {
		status = model.StatusNotStarted
	}
	if !model.ValidStatus(status) || status == model.StatusArchived {
		return nil, apperr.Validationf("invalid initial status %q", status)
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, apperr.Validationf("invalid priority %q", priority)
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Department:  input.Department,
		CreatedBy:   actor.ID,
		AssignedTo:  input.AssignedTo,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		Attachments: emptyIfNil(input.Attachments),
		Tags:        emptyIfNil(input.Tags),
		ChangeLog: []model.ChangeEntry{{
			Field:     "status",
			OldValue:  "",
			NewValue:  string(status),
			ChangedBy: actor.ID,
			ChangedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Get fetches a single task the actor is allowed to see.
func (s *TaskService) Get(ctx context.Context, actor *model.User, id string) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAccess(actor, taskScope(task)); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies a partial update. Every effective change to a trackable
// field appends exactly one change-log entry; title, tags, attachments
// and completion_time only bump the modification time. Requires edit_task
// plus visibility; archived tasks are immutable, and the status field can
// never be moved to archived through this path.
func (s *TaskService) Update(ctx context.Context, actor *model.User, id string, update TaskUpdate) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(actor, auth.PermEditTask); err != nil {
		return nil, err
	}
	if err := auth.RequireAccess(actor, taskScope(task)); err != nil {
		return nil, err
	}
	if task.Status == model.StatusArchived {
		return nil, apperr.InvalidTransitionf("task %s is archived", id)
	}

	now := time.Now().UTC()
	entry := func(field, oldVal, newVal string) model.ChangeEntry {
		return model.ChangeEntry{
			Field:     field,
			OldValue:  oldVal,
			NewValue:  newVal,
			ChangedBy: actor.ID,
			ChangedAt: now,
		}
	}

	if update.Status != nil && *update.Status != task.Status {
		next := *update.Status
		if !model.ValidStatus(next) {
			return nil, apperr.Validationf("invalid status %q", next)
		}
		switch next {
		case model.StatusArchived:
			// Archiving must go through the archive operation so the
			// snapshot record is written alongside the status flip.
			return nil, apperr.InvalidTransitionf("use the archive operation to archive a task")
		case model.StatusDone:
			if err := auth.Require(actor, auth.PermApproveTask); err != nil {
				return nil, err
			}
			if task.Status != model.StatusPendingApproval {
				return nil, apperr.InvalidTransitionf("task is %s, not %s", task.Status, model.StatusPendingApproval)
			}
		}
		task.ChangeLog = append(task.ChangeLog, entry("status", string(task.Status), string(next)))
		task.Status = next
	}

	if update.AssignedTo != nil && strOrEmpty(task.AssignedTo) != *update.AssignedTo {
		task.ChangeLog = append(task.ChangeLog, entry("assigned_to", strOrEmpty(task.AssignedTo), *update.AssignedTo))
		task.AssignedTo = update.AssignedTo
	}

	if update.Priority != nil && *update.Priority != task.Priority {
		if !model.ValidPriority(*update.Priority) {
			return nil, apperr.Validationf("invalid priority %q", *update.Priority)
		}
		task.ChangeLog = append(task.ChangeLog, entry("priority", string(task.Priority), string(*update.Priority)))
		task.Priority = *update.Priority
	}

	if update.Description != nil && *update.Description != task.Description {
		task.ChangeLog = append(task.ChangeLog, entry("description", task.Description, *update.Description))
		task.Description = *update.Description
	}

	if update.DueDate != nil && !timeEqual(task.DueDate, update.DueDate) {
		task.ChangeLog = append(task.ChangeLog, entry("due_date", timeValue(task.DueDate), timeValue(update.DueDate)))
		task.DueDate = update.DueDate
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, apperr.Validationf("title cannot be empty")
		}
		task.Title = strings.TrimSpace(*update.Title)
	}
	if update.Tags != nil {
		task.Tags = update.Tags
	}
	if update.CompletionTime != nil {
		task.CompletionTime = update.CompletionTime
	}
	for _, att := range update.Attachments {
		if !contains(task.Attachments, att) {
			task.Attachments = append(task.Attachments, att)
		}
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Approve moves a pending_approval task to done. Requires approve_task;
// any other current status is an invalid transition and leaves the task
// untouched.
func (s *TaskService) Approve(ctx context.Context, actor *model.User, id string) (*model.Task, error) {
	if err := auth.Require(actor, auth.PermApproveTask); err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != model.StatusPendingApproval {
		return nil, apperr.InvalidTransitionf("task is %s, not %s", task.Status, model.StatusPendingApproval)
	}

	task.ChangeLog = append(task.ChangeLog, model.ChangeEntry{
		Field:     "status",
		OldValue:  string(task.Status),
		NewValue:  string(model.StatusDone),
		ChangedBy: actor.ID,
		ChangedAt: time.Now().UTC(),
	})
	task.Status = model.StatusDone
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Search runs the combinable filters, silently pinned to the actor's own
// department unless they view all tasks.
func (s *TaskService) Search(ctx context.Context, actor *model.User, filter repository.TaskFilter) ([]model.Task, error) {
	if !auth.Has(actor, auth.PermViewAllTasks) {
		filter.Department = actor.Department
	}
	return s.tasks.Search(ctx, filter)
}

// ListByDepartment lists a department's tasks. Callers who view all tasks
// get the unrestricted listing; everyone else must ask for their own
// department.
func (s *TaskService) ListByDepartment(ctx context.Context, actor *model.User, department string, status model.Status, excludeArchived bool) ([]model.Task, error) {
	all := auth.Has(actor, auth.PermViewAllTasks)
	if !all && actor.Department != department {
		return nil, apperr.PermissionDeniedf("outside caller's department scope")
	}
	return s.tasks.ListByDepartment(ctx, department, status, excludeArchived, all)
}

// ListByStatus lists tasks in a status, department-scoped unless the
// actor views all tasks.
func (s *TaskService) ListByStatus(ctx context.Context, actor *model.User, status model.Status) ([]model.Task, error) {
	if !model.ValidStatus(status) {
		return nil, apperr.Validationf("invalid status %q", status)
	}
	department := actor.Department
	if auth.Has(actor, auth.PermViewAllTasks) {
		department = ""
	}
	return s.tasks.ListByStatus(ctx, status, department)
}

// ListForUser returns the actor's tasks: created by or assigned to them.
func (s *TaskService) ListForUser(ctx context.Context, actor *model.User, department string) ([]model.Task, error) {
	return s.tasks.ListForUser(ctx, actor.ID, department)
}

func taskScope(t *model.Task) auth.Scope {
	return auth.Scope{
		Department: t.Department,
		CreatorID:  t.CreatedBy,
		AssigneeID: strOrEmpty(t.AssignedTo),
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timeValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
