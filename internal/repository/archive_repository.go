package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-tracker/internal/apperr"
	"task-tracker/internal/model"
)

// ArchiveFilter mirrors the task search filter plus an inclusive
// archived-date range. Filters without a column on the archive record
// (priority, tags, creation range) run against the stored snapshot.
type ArchiveFilter struct {
	Department   string
	Status       model.Status
	Title        string // case-insensitive substring
	Priority     model.Priority
	Tags         []string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	ArchivedFrom *time.Time
	ArchivedTo   *time.Time
}

// ArchiveRepository handles the archives collection. It also touches the
// tasks collection inside Archive, which is the one dual-write in the
// system.
type ArchiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Archive snapshots the task into an immutable archive record and flips
// the live task's status to archived, appending the status change entry.
// Both writes run in one transaction: either both happen or neither.
func (r *ArchiveRepository) Archive(ctx context.Context, taskID, actorID string) (*model.Task, error) {
	var archived *model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("task %s", taskID)
			}
			return apperr.Persistence("find task", err)
		}
		if task.Status == model.StatusArchived {
			return apperr.InvalidTransitionf("task %s is already archived", taskID)
		}

		now := time.Now().UTC()
		record := model.ArchiveRecord{
			ID:           uuid.NewString(),
			TaskID:       task.ID,
			Department:   task.Department,
			Title:        task.Title,
			Description:  task.Description,
			Status:       task.Status,
			ArchivedBy:   actorID,
			ArchivedAt:   now,
			OriginalTask: task, // pre-archive state
		}
		if err := tx.Create(&record).Error; err != nil {
			return apperr.Persistence("create archive record", err)
		}

		task.ChangeLog = append(task.ChangeLog, model.ChangeEntry{
			Field:     "status",
			OldValue:  string(task.Status),
			NewValue:  string(model.StatusArchived),
			ChangedBy: actorID,
			ChangedAt: now,
		})
		task.Status = model.StatusArchived
		task.UpdatedAt = now
		if err := tx.Save(&task).Error; err != nil {
			return apperr.Persistence("update task status", err)
		}
		archived = &task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

func (r *ArchiveRepository) FindByID(ctx context.Context, id string) (*model.ArchiveRecord, error) {
	var record model.ArchiveRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	switch {
	case err == nil:
		return &record, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFoundf("archive record %s", id)
	default:
		return nil, apperr.Persistence("find archive record", err)
	}
}

// Search filters archive records. Snapshot-only filters are applied in Go
// after the indexed columns narrow the set.
func (r *ArchiveRepository) Search(ctx context.Context, filter ArchiveFilter) ([]model.ArchiveRecord, error) {
	q := r.db.WithContext(ctx).Model(&model.ArchiveRecord{})
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Title != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Title)+"%")
	}
	if filter.ArchivedFrom != nil {
		q = q.Where("archived_at >= ?", *filter.ArchivedFrom)
	}
	if filter.ArchivedTo != nil {
		q = q.Where("archived_at <= ?", *filter.ArchivedTo)
	}

	var records []model.ArchiveRecord
	if err := q.Order("archived_at DESC").Find(&records).Error; err != nil {
		return nil, apperr.Persistence("search archives", err)
	}

	matched := records[:0]
	for _, rec := range records {
		if filter.Priority != "" && rec.OriginalTask.Priority != filter.Priority {
			continue
		}
		if len(filter.Tags) > 0 && !rec.OriginalTask.HasAllTags(filter.Tags) {
			continue
		}
		if filter.CreatedFrom != nil && rec.OriginalTask.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && rec.OriginalTask.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched, nil
}
