package model

import "time"

// ReportType names one of the fixed report templates.
type ReportType string

const (
	ReportTaskSummary           ReportType = "task_summary"
	ReportDepartmentPerformance ReportType = "department_performance"
	ReportUserActivity          ReportType = "user_activity"
	ReportArchiveSummary        ReportType = "archive_summary"
)

// ValidReportType reports whether t is a known template type.
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportTaskSummary, ReportDepartmentPerformance, ReportUserActivity, ReportArchiveSummary:
		return true
	default:
		return false
	}
}

// LayoutSection is one ordered display section of a template layout.
type LayoutSection struct {
	Type  string `json:"type"` // summary, chart, table
	Title string `json:"title"`
}

// ReportTemplate is a named, reusable report shape.
type ReportTemplate struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex"`
	Description string
	Type        ReportType
	Fields      []string        `gorm:"serializer:json"` // required filter fields
	Layout      []LayoutSection `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReportFilters are the caller-supplied filters a report was generated
// with. Absent fields are not applied.
type ReportFilters struct {
	Department string     `json:"department,omitempty"`
	Status     Status     `json:"status,omitempty"`
	UserID     string     `json:"user_id,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

// Report is a generated report. Data is a copy of the aggregation result
// at generation time; later task changes do not alter it. Department nil
// means the report spans all departments.
type Report struct {
	ID          string `gorm:"primaryKey"`
	Title       string
	Template    ReportType
	Filters     ReportFilters `gorm:"serializer:json"`
	GeneratedBy string        `gorm:"index"`
	Department  *string       `gorm:"index"`
	Data        any           `gorm:"serializer:json"`
	CreatedAt   time.Time
}

// TaskSummary is the task_summary payload.
type TaskSummary struct {
	TotalTasks           int      `json:"total_tasks"`
	CompletedTasks       int      `json:"completed_tasks"`
	InProgressTasks      int      `json:"in_progress_tasks"`
	PendingApprovalTasks int      `json:"pending_approval_tasks"`
	Departments          []string `json:"departments"`
	AvgCompletionTime    *float64 `json:"avg_completion_time"`
}

// TaskDigest is the per-task line item inside a status group.
type TaskDigest struct {
	Title     string    `json:"title"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusGroup is one status bucket of a department_performance payload.
type StatusGroup struct {
	Status            Status       `json:"status"`
	Count             int          `json:"count"`
	AvgCompletionTime *float64     `json:"avg_completion_time"`
	Tasks             []TaskDigest `json:"tasks"`
}

// UserActivity is one user's row in a user_activity payload.
type UserActivity struct {
	UserID    string `json:"user_id"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

// ArchiveSummary is the archive_summary payload.
type ArchiveSummary struct {
	TotalArchived int            `json:"total_archived"`
	ByDepartment  map[string]int `json:"by_department"`
	ByStatus      map[string]int `json:"by_status"`
}
