package service

import (
	"context"

	"task-tracker/internal/auth"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

// ArchiveService gates the archive store. Requires access_archives for
// every operation; callers without view_all_tasks stay inside their own
// department.
type ArchiveService struct {
	archives *repository.ArchiveRepository
}

func NewArchiveService(archives *repository.ArchiveRepository) *ArchiveService {
	return &ArchiveService{archives: archives}
}

// Archive snapshots the task and flips its status to archived in one
// transaction, returning the updated live task.
func (s *ArchiveService) Archive(ctx context.Context, actor *model.User, taskID string) (*model.Task, error) {
	if err := auth.Require(actor, auth.PermAccessArchives); err != nil {
		return nil, err
	}
	return s.archives.Archive(ctx, taskID, actor.ID)
}

// Get fetches one archive record the actor may see.
func (s *ArchiveService) Get(ctx context.Context, actor *model.User, id string) (*model.ArchiveRecord, error) {
	if err := auth.Require(actor, auth.PermAccessArchives); err != nil {
		return nil, err
	}
	record, err := s.archives.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAccess(actor, auth.Scope{Department: record.Department}); err != nil {
		return nil, err
	}
	return record, nil
}

// Search filters archive records, pinned to the actor's department unless
// they view all tasks.
func (s *ArchiveService) Search(ctx context.Context, actor *model.User, filter repository.ArchiveFilter) ([]model.ArchiveRecord, error) {
	if err := auth.Require(actor, auth.PermAccessArchives); err != nil {
		return nil, err
	}
	if !auth.Has(actor, auth.PermViewAllTasks) {
		filter.Department = actor.Department
	}
	return s.archives.Search(ctx, filter)
}
