package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-tracker/internal/apperr"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

func TestTaskCreate_DefaultsAndCreationEntry(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)

	task, err := env.tasks.Create(context.Background(), staff, TaskInput{
		Title:       "Design review",
		Description: "Review the v2 design",
		Department:  "CSE",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != model.StatusNotStarted {
		t.Errorf("status: got %s, want %s", task.Status, model.StatusNotStarted)
	}
	if task.Priority != model.PriorityMedium {
		t.Errorf("priority: got %s, want %s", task.Priority, model.PriorityMedium)
	}
	if task.CreatedBy != staff.ID {
		t.Errorf("creator: got %s, want %s", task.CreatedBy, staff.ID)
	}
	if len(task.ChangeLog) != 1 {
		t.Fatalf("change log: got %d entries, want 1", len(task.ChangeLog))
	}
	entry := task.ChangeLog[0]
	if entry.Field != "status" || entry.OldValue != "" || entry.NewValue != string(model.StatusNotStarted) {
		t.Errorf("creation entry wrong: %+v", entry)
	}
	if entry.ChangedBy != staff.ID {
		t.Errorf("creation entry actor: %s", entry.ChangedBy)
	}
}

func TestTaskCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)

	cases := []TaskInput{
		{Description: "d", Department: "CSE"},                   // no title
		{Title: "t", Department: "CSE"},                         // no description
		{Title: "t", Description: "d", Department: "UNKNOWN"},   // bad department
		{Title: "t", Description: "d", Department: "CSE", Status: model.StatusArchived},
	}
	for i, input := range cases {
		if _, err := env.tasks.Create(context.Background(), staff, input); !errors.Is(err, apperr.ErrValidation) && !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Errorf("case %d: expected rejection, got %v", i, err)
		}
	}

	noPerms := &model.User{ID: "x", Department: "CSE"}
	_, err := env.tasks.Create(context.Background(), noPerms, TaskInput{Title: "t", Description: "d", Department: "CSE"})
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("expected permission denied without create_task, got %v", err)
	}
}

func TestTaskUpdate_TrackableFieldsAppendOneEntryEach(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	task := mustCreateTask(t, env, staff, "CSE")

	due := time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC)
	updated, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Status:   ptr(model.StatusInProgress),
		Priority: ptr(model.PriorityHigh),
		DueDate:  &due,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.ChangeLog) != 4 { // creation + status + priority + due_date
		t.Fatalf("change log: got %d entries, want 4", len(updated.ChangeLog))
	}

	byField := make(map[string]model.ChangeEntry)
	for _, e := range updated.ChangeLog[1:] {
		byField[e.Field] = e
	}
	if e := byField["status"]; e.OldValue != "not_started" || e.NewValue != "in_progress" {
		t.Errorf("status entry: %+v", e)
	}
	if e := byField["priority"]; e.OldValue != "medium" || e.NewValue != "high" {
		t.Errorf("priority entry: %+v", e)
	}
	if e := byField["due_date"]; e.OldValue != "" || e.NewValue != "2026-09-15T00:00:00Z" {
		t.Errorf("due_date entry: %+v", e)
	}
}

func TestTaskUpdate_NoEntryWhenValueUnchanged(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	task := mustCreateTask(t, env, staff, "CSE")

	updated, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Status: ptr(model.StatusNotStarted), // same value
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.ChangeLog) != 1 {
		t.Fatalf("no-op status update appended entries: %d", len(updated.ChangeLog))
	}
}

func TestTaskUpdate_TitleAndTagsNotTracked(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	task := mustCreateTask(t, env, staff, "CSE")

	updated, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Title: ptr("Renamed"),
		Tags:  []string{"urgent"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.ChangeLog) != 1 {
		t.Fatalf("title/tags update appended entries: %d", len(updated.ChangeLog))
	}
	if updated.Title != "Renamed" {
		t.Errorf("title not applied: %s", updated.Title)
	}
}

func TestTaskUpdate_AttachmentsAppendOnly(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	task := mustCreateTask(t, env, staff, "CSE")

	if _, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Attachments: []string{"spec.pdf"},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	updated, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Attachments: []string{"notes.txt", "spec.pdf"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []string{"spec.pdf", "notes.txt"}
	if len(updated.Attachments) != len(want) {
		t.Fatalf("attachments: got %v, want %v", updated.Attachments, want)
	}
	for i, a := range want {
		if updated.Attachments[i] != a {
			t.Fatalf("attachments: got %v, want %v", updated.Attachments, want)
		}
	}
}

func TestTaskUpdate_StatusArchivedRejected(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	task := mustCreateTask(t, env, staff, "CSE")

	_, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Status: ptr(model.StatusArchived),
	})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTaskUpdate_DoneRequiresApprovalGate(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	faculty := actor("CSE", model.RoleFaculty)
	task := mustCreateTask(t, env, staff, "CSE")

	// staff lacks approve_task
	_, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Status: ptr(model.StatusDone),
	})
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	// faculty holds approve_task but the task is not pending approval
	_, err = env.tasks.Update(context.Background(), faculty, task.ID, TaskUpdate{
		Status: ptr(model.StatusDone),
	})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTaskApprove_Scenario(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	faculty := actor("CSE", model.RoleFaculty)

	task, err := env.tasks.Create(context.Background(), staff, TaskInput{
		Title:       "Design review",
		Description: "Review the v2 design",
		Department:  "CSE",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Status: ptr(model.StatusPendingApproval),
	}); err != nil {
		t.Fatalf("move to pending: %v", err)
	}

	approved, err := env.tasks.Approve(context.Background(), faculty, task.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != model.StatusDone {
		t.Errorf("status: got %s, want %s", approved.Status, model.StatusDone)
	}
	if len(approved.ChangeLog) != 3 { // creation + pending_approval + done
		t.Fatalf("change log: got %d entries, want 3", len(approved.ChangeLog))
	}
	last := approved.ChangeLog[2]
	if last.OldValue != "pending_approval" || last.NewValue != "done" || last.ChangedBy != faculty.ID {
		t.Errorf("approval entry wrong: %+v", last)
	}
}

func TestTaskApprove_WrongStatusLeavesTaskUnchanged(t *testing.T) {
	env := newTestEnv(t)
	staff := actor("CSE", model.RoleStaff)
	faculty := actor("CSE", model.RoleFaculty)
	task := mustCreateTask(t, env, staff, "CSE")

	_, err := env.tasks.Approve(context.Background(), faculty, task.ID)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	got, err := env.tasks.Get(context.Background(), faculty, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.StatusNotStarted || len(got.ChangeLog) != 1 {
		t.Errorf("failed approval mutated the task: %s, %d entries", got.Status, len(got.ChangeLog))
	}

	if _, err := env.tasks.Approve(context.Background(), staff, task.ID); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("staff approval should be denied, got %v", err)
	}
}

func TestTaskUpdate_ArchivedTaskImmutable(t *testing.T) {
	env := newTestEnv(t)
	admin := actor("ADMIN", model.RoleAdmin)
	staff := actor("CSE", model.RoleStaff)
	task := mustCreateTask(t, env, staff, "CSE")

	if _, err := env.archives.Archive(context.Background(), admin, task.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	_, err := env.tasks.Update(context.Background(), staff, task.ID, TaskUpdate{
		Description: ptr("rewrite"),
	})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on archived task, got %v", err)
	}
}

func TestTaskGet_Visibility(t *testing.T) {
	env := newTestEnv(t)
	cseStaff := actor("CSE", model.RoleStaff)
	eceStaff := actor("ECE", model.RoleStaff)
	admin := actor("ADMIN", model.RoleAdmin)
	task := mustCreateTask(t, env, cseStaff, "CSE")

	if _, err := env.tasks.Get(context.Background(), eceStaff, task.ID); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("cross-department read should be denied, got %v", err)
	}
	if _, err := env.tasks.Get(context.Background(), admin, task.ID); err != nil {
		t.Errorf("view_all_tasks read failed: %v", err)
	}

	// Assignment opens visibility across departments.
	if _, err := env.tasks.Update(context.Background(), cseStaff, task.ID, TaskUpdate{
		AssignedTo: ptr(eceStaff.ID),
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := env.tasks.Get(context.Background(), eceStaff, task.ID); err != nil {
		t.Errorf("assignee read failed: %v", err)
	}
}

func TestTaskListByDepartment_Scoping(t *testing.T) {
	env := newTestEnv(t)
	cseStaff := actor("CSE", model.RoleStaff)
	eceStaff := actor("ECE", model.RoleStaff)
	admin := actor("ADMIN", model.RoleAdmin)
	mustCreateTask(t, env, cseStaff, "CSE")
	mustCreateTask(t, env, eceStaff, "ECE")

	if _, err := env.tasks.ListByDepartment(context.Background(), cseStaff, "ECE", "", false); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("cross-department listing should be denied, got %v", err)
	}

	own, err := env.tasks.ListByDepartment(context.Background(), cseStaff, "CSE", "", false)
	if err != nil {
		t.Fatalf("own department listing: %v", err)
	}
	if len(own) != 1 || own[0].Department != "CSE" {
		t.Fatalf("own department listing: %v", own)
	}

	all, err := env.tasks.ListByDepartment(context.Background(), admin, "CSE", "", false)
	if err != nil {
		t.Fatalf("admin listing: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("view_all_tasks should span departments, got %d", len(all))
	}
}

func TestTaskSearch_SilentDepartmentOverride(t *testing.T) {
	env := newTestEnv(t)
	cseStaff := actor("CSE", model.RoleStaff)
	eceStaff := actor("ECE", model.RoleStaff)
	mustCreateTask(t, env, cseStaff, "CSE")
	mustCreateTask(t, env, eceStaff, "ECE")

	got, err := env.tasks.Search(context.Background(), cseStaff, repository.TaskFilter{Department: "ECE"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, task := range got {
		if task.Department != "CSE" {
			t.Fatalf("search leaked %s task to a CSE caller", task.Department)
		}
	}
	if len(got) != 1 {
		t.Fatalf("expected the caller's own task, got %d", len(got))
	}
}

func mustCreateTask(t *testing.T, env *testEnv, creator *model.User, dept string) *model.Task {
	t.Helper()
	task, err := env.tasks.Create(context.Background(), creator, TaskInput{
		Title:       "Task for " + dept,
		Description: "generated in test",
		Department:  dept,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}
