package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"task-tracker/internal/apperr"
	"task-tracker/internal/model"
)

// TaskFilter is the combinable search filter. Zero-value fields are not
// applied. The date range is inclusive on both ends.
type TaskFilter struct {
	Department  string
	Status      model.Status
	Title       string // case-insensitive substring
	Priority    model.Priority
	Tags        []string // task must carry all of them
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TaskRepository handles the tasks collection.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return apperr.Persistence("create task", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFoundf("task %s", id)
	default:
		return nil, apperr.Persistence("find task", err)
	}
}

// Save writes the whole task document back. Last write wins per document;
// there is no version check on concurrent updates.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return apperr.Persistence("save task", err)
	}
	return nil
}

// Search applies the combinable filters. Tag containment is checked in Go
// because the tag set lives in a serialized JSON column.
func (r *TaskRepository) Search(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Title != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Title)+"%")
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at <= ?", *filter.CreatedTo)
	}

	var tasks []model.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, apperr.Persistence("search tasks", err)
	}
	if len(filter.Tags) == 0 {
		return tasks, nil
	}
	matched := tasks[:0]
	for _, t := range tasks {
		if t.HasAllTags(filter.Tags) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// ListByDepartment lists a department's tasks, newest first. With
// allDepartments set the department restriction is skipped entirely.
func (r *TaskRepository) ListByDepartment(ctx context.Context, department string, status model.Status, excludeArchived, allDepartments bool) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if !allDepartments {
		q = q.Where("department = ?", department)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if excludeArchived {
		q = q.Where("status <> ?", model.StatusArchived)
	}

	var tasks []model.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, apperr.Persistence("list department tasks", err)
	}
	return tasks, nil
}

func (r *TaskRepository) ListByStatus(ctx context.Context, status model.Status, department string) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("status = ?", status)
	if department != "" {
		q = q.Where("department = ?", department)
	}

	var tasks []model.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, apperr.Persistence("list tasks by status", err)
	}
	return tasks, nil
}

// ListForUser returns tasks the user created or is assigned to.
func (r *TaskRepository) ListForUser(ctx context.Context, userID, department string) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("created_by = ? OR assigned_to = ?", userID, userID)
	if department != "" {
		q = q.Where("department = ?", department)
	}

	var tasks []model.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, apperr.Persistence("list user tasks", err)
	}
	return tasks, nil
}
