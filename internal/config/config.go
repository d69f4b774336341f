package config

import (
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the backend.
type Config struct {
	DatabaseURL      string
	AdminEmail       string
	AdminName        string
	AdminDepartment  string
	SnapshotInterval time.Duration // periodic task_summary snapshot
	SnapshotAt       string        // HH:MM; when set, replaces the interval
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AdminEmail:       strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminName:        strings.TrimSpace(os.Getenv("ADMIN_NAME")),
		AdminDepartment:  strings.TrimSpace(os.Getenv("ADMIN_DEPARTMENT")),
		SnapshotInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_SNAPSHOT_HOURS"))),
		SnapshotAt:       strings.TrimSpace(os.Getenv("REPORT_SNAPSHOT_AT")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "task_tracker.db"
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@example.com"
	}
	if cfg.AdminName == "" {
		cfg.AdminName = "Admin User"
	}
	if cfg.AdminDepartment == "" {
		cfg.AdminDepartment = "ADMIN"
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = 24 * time.Hour
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
