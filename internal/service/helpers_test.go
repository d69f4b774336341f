package service

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-tracker/internal/auth"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

type testEnv struct {
	db       *gorm.DB
	users    *UserService
	tasks    *TaskService
	archives *ArchiveService
	reports  *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:test-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.ArchiveRecord{},
		&model.ReportTemplate{},
		&model.Report{},
	); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	reportRepo := repository.NewReportRepository(db)

	return &testEnv{
		db:       db,
		users:    NewUserService(userRepo),
		tasks:    NewTaskService(taskRepo),
		archives: NewArchiveService(archiveRepo),
		reports:  NewReportService(reportRepo, taskRepo, archiveRepo),
	}
}

// actor builds an unsaved user value with derived permissions; services
// only need the acting identity, not a directory row.
func actor(dept string, roles ...string) *model.User {
	id := uuid.NewString()
	return &model.User{
		ID:          id,
		Email:       id + "@example.com",
		Name:        "Test " + dept,
		Department:  dept,
		Roles:       roles,
		Permissions: auth.PermissionsForRoles(roles),
		IsActive:    true,
	}
}

func ptr[T any](v T) *T { return &v }
