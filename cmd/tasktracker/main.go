package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-tracker/internal/apperr"
	"task-tracker/internal/config"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	reportRepo := repository.NewReportRepository(db)

	userSvc := service.NewUserService(userRepo)
	reportSvc := service.NewReportService(reportRepo, taskRepo, archiveRepo)

	if err := reportSvc.SeedDefaultTemplates(ctx); err != nil {
		log.Fatalf("seed templates: %v", err)
	}
	admin, err := ensureAdmin(ctx, userSvc, cfg)
	if err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	snapshot := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		report, err := reportSvc.Generate(jobCtx, admin, service.GenerateInput{
			Title:    "Scheduled task summary " + time.Now().Format("2006-01-02 15:04"),
			Template: model.ReportTaskSummary,
		})
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			// No tasks yet; nothing to snapshot.
		case err != nil:
			log.Printf("snapshot: %v", err)
		default:
			log.Printf("snapshot report %s generated", report.ID)
		}
	}
	if cfg.SnapshotAt != "" {
		if _, err := scheduler.ScheduleDaily(cfg.SnapshotAt, snapshot); err != nil {
			log.Fatalf("schedule snapshot: %v", err)
		}
	} else if _, err := scheduler.ScheduleInterval(cfg.SnapshotInterval, snapshot); err != nil {
		log.Fatalf("schedule snapshot: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Task tracker backend started.")
	<-ctx.Done()
	log.Println("Shutdown complete.")
}

// ensureAdmin creates the bootstrap super admin on first start.
func ensureAdmin(ctx context.Context, users *service.UserService, cfg config.Config) (*model.User, error) {
	admin, err := users.GetByEmail(ctx, cfg.AdminEmail)
	switch {
	case err == nil:
		return admin, nil
	case errors.Is(err, apperr.ErrNotFound):
		return users.Create(ctx, service.UserInput{
			Email:      cfg.AdminEmail,
			Name:       cfg.AdminName,
			Department: cfg.AdminDepartment,
			Roles:      []string{model.RoleSuperAdmin},
		})
	default:
		return nil, err
	}
}
