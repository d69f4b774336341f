package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"task-tracker/internal/apperr"
	"task-tracker/internal/auth"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// defaultTemplates are seeded once when the collection is empty.
var defaultTemplates = []model.ReportTemplate{
	{
		Name:        "Task Summary Report",
		Description: "Overview of all tasks and their statuses",
		Type:        model.ReportTaskSummary,
		Fields:      []string{"status", "department", "date_range"},
		Layout: []model.LayoutSection{
			{Type: "summary", Title: "Task Statistics"},
			{Type: "chart", Title: "Task Status Distribution"},
			{Type: "table", Title: "Task Details"},
		},
	},
	{
		Name:        "Department Performance Report",
		Description: "Detailed analysis of department task completion and efficiency",
		Type:        model.ReportDepartmentPerformance,
		Fields:      []string{"department", "date_range"},
		Layout: []model.LayoutSection{
			{Type: "summary", Title: "Department Overview"},
			{Type: "chart", Title: "Task Completion Rate"},
			{Type: "table", Title: "Task Details by Status"},
		},
	},
	{
		Name:        "User Activity Report",
		Description: "Analysis of user task creation and completion",
		Type:        model.ReportUserActivity,
		Fields:      []string{"user", "date_range"},
		Layout: []model.LayoutSection{
			{Type: "summary", Title: "User Activity Overview"},
			{Type: "chart", Title: "Task Creation vs Completion"},
			{Type: "table", Title: "Task History"},
		},
	},
	{
		Name:        "Archive Summary Report",
		Description: "Summary of archived tasks and their metadata",
		Type:        model.ReportArchiveSummary,
		Fields:      []string{"department", "date_range"},
		Layout: []model.LayoutSection{
			{Type: "summary", Title: "Archive Overview"},
			{Type: "chart", Title: "Archive Distribution"},
			{Type: "table", Title: "Archived Tasks"},
		},
	},
}

// TemplateInput is the data required to register a custom template.
type TemplateInput struct {
	Name        string
	Description string
	Type        model.ReportType
	Fields      []string
	Layout      []model.LayoutSection
}

// GenerateInput asks for one report.
type GenerateInput struct {
	Title    string // defaults to a timestamped title
	Template model.ReportType
	Filters  model.ReportFilters
}

// ReportService aggregates tasks and archives into immutable reports.
// Aggregation happens over fetched rows; a report keeps a copy of the
// result, so later task changes never alter it.
type ReportService struct {
	reports  *repository.ReportRepository
	tasks    *repository.TaskRepository
	archives *repository.ArchiveRepository
}

func NewReportService(reports *repository.ReportRepository, tasks *repository.TaskRepository, archives *repository.ArchiveRepository) *ReportService {
	return &ReportService{reports: reports, tasks: tasks, archives: archives}
}

// SeedDefaultTemplates inserts the four canonical templates when the
// collection is empty. Safe to call at every startup.
func (s *ReportService) SeedDefaultTemplates(ctx context.Context) error {
	n, err := s.reports.CountTemplates(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, tmpl := range defaultTemplates {
		tmpl.ID = uuid.NewString()
		tmpl.CreatedAt = now
		tmpl.UpdatedAt = now
		if err := s.reports.CreateTemplate(ctx, &tmpl); err != nil {
			return err
		}
	}
	return nil
}

// Templates lists every template. Requires generate_reports.
func (s *ReportService) Templates(ctx context.Context, actor *model.User) ([]model.ReportTemplate, error) {
	if err := auth.Require(actor, auth.PermGenerateReports); err != nil {
		return nil, err
	}
	return s.reports.ListTemplates(ctx)
}

// CreateTemplate registers a custom template. Requires manage_roles.
func (s *ReportService) CreateTemplate(ctx context.Context, actor *model.User, input TemplateInput) (*model.ReportTemplate, error) {
	if err := auth.Require(actor, auth.PermManageRoles); err != nil {
		return nil, err
	}
	if input.Name == "" || input.Description == "" {
		return nil, apperr.Validationf("name and description are required")
	}
	if !model.ValidReportType(input.Type) {
		return nil, apperr.Validationf("unknown template type %q", input.Type)
	}
	if len(input.Fields) == 0 || len(input.Layout) == 0 {
		return nil, apperr.Validationf("fields and layout are required")
	}

	now := time.Now().UTC()
	tmpl := model.ReportTemplate{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
		Fields:      input.Fields,
		Layout:      input.Layout,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reports.CreateTemplate(ctx, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Generate runs the aggregation for a template type and persists the
// result. Callers without view_all_tasks are pinned to their own
// department regardless of the department filter they pass in.
func (s *ReportService) Generate(ctx context.Context, actor *model.User, input GenerateInput) (*model.Report, error) {
	if err := auth.Require(actor, auth.PermGenerateReports); err != nil {
		return nil, err
	}

	viewAll := auth.Has(actor, auth.PermViewAllTasks)
	department := input.Filters.Department
	if !viewAll {
		department = actor.Department
	}

	var data any
	var err error
	switch input.Template {
	case model.ReportTaskSummary:
		data, err = s.taskSummary(ctx, department, input.Filters)
	case model.ReportDepartmentPerformance:
		if input.Filters.Department == "" {
			return nil, apperr.Validationf("department is required for the performance report")
		}
		if !viewAll && input.Filters.Department != actor.Department {
			return nil, apperr.PermissionDeniedf("cannot report on another department")
		}
		data, err = s.departmentPerformance(ctx, input.Filters)
	case model.ReportUserActivity:
		data, err = s.userActivity(ctx, department, input.Filters)
	case model.ReportArchiveSummary:
		data, err = s.archiveSummary(ctx, department, input.Filters)
	default:
		return nil, apperr.Validationf("unknown template type %q", input.Template)
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, apperr.NotFoundf("no data for the given filters")
	}

	now := time.Now().UTC()
	title := input.Title
	if title == "" {
		title = "Report " + now.Format("2006-01-02 15:04")
	}
	var scope *string
	if !viewAll {
		dept := actor.Department
		scope = &dept
	}
	report := model.Report{
		ID:          uuid.NewString(),
		Title:       title,
		Template:    input.Template,
		Filters:     input.Filters,
		GeneratedBy: actor.ID,
		Department:  scope,
		Data:        data,
		CreatedAt:   now,
	}
	if err := s.reports.CreateReport(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Get fetches a stored report for its generator, department members, or
// callers who view all tasks.
func (s *ReportService) Get(ctx context.Context, actor *model.User, id string) (*model.Report, error) {
	report, err := s.reports.FindReportByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewReport(actor, report) {
		return nil, apperr.PermissionDeniedf("not a report you may view")
	}
	return report, nil
}

// Export serializes a stored report's data payload. Same sharing rule as
// Get.
func (s *ReportService) Export(ctx context.Context, actor *model.User, id, format string) ([]byte, error) {
	report, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(report.Data, "", "  ")
		if err != nil {
			return nil, apperr.Validationf("encode report: %v", err)
		}
		return out, nil
	case FormatCSV:
		return exportCSV(report.Data)
	default:
		return nil, apperr.Validationf("unsupported export format %q", format)
	}
}

// ListByDepartment lists a department's reports for its members or
// callers who view all tasks.
func (s *ReportService) ListByDepartment(ctx context.Context, actor *model.User, department string) ([]model.Report, error) {
	if actor.Department != department && !auth.Has(actor, auth.PermViewAllTasks) {
		return nil, apperr.PermissionDeniedf("outside caller's department scope")
	}
	return s.reports.ListReportsByDepartment(ctx, department)
}

// ListByGenerator lists the actor's own reports.
func (s *ReportService) ListByGenerator(ctx context.Context, actor *model.User) ([]model.Report, error) {
	return s.reports.ListReportsByGenerator(ctx, actor.ID)
}

func canViewReport(actor *model.User, report *model.Report) bool {
	if auth.Has(actor, auth.PermViewAllTasks) {
		return true
	}
	if report.GeneratedBy == actor.ID {
		return true
	}
	return report.Department != nil && *report.Department == actor.Department
}

// taskSummary counts tasks by status and averages completion time over
// the matching set. Returns nil when nothing matches.
func (s *ReportService) taskSummary(ctx context.Context, department string, filters model.ReportFilters) (any, error) {
	tasks, err := s.tasks.Search(ctx, repository.TaskFilter{
		Department:  department,
		Status:      filters.Status,
		CreatedFrom: filters.From,
		CreatedTo:   filters.To,
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	summary := model.TaskSummary{TotalTasks: len(tasks)}
	deptSet := make(map[string]struct{})
	var completionTimes []float64
	for _, t := range tasks {
		switch t.Status {
		case model.StatusDone:
			summary.CompletedTasks++
		case model.StatusInProgress:
			summary.InProgressTasks++
		case model.StatusPendingApproval:
			summary.PendingApprovalTasks++
		}
		deptSet[t.Department] = struct{}{}
		if t.CompletionTime != nil {
			completionTimes = append(completionTimes, *t.CompletionTime)
		}
	}
	for dept := range deptSet {
		summary.Departments = append(summary.Departments, dept)
	}
	sort.Strings(summary.Departments)
	summary.AvgCompletionTime = mean(completionTimes)
	return &summary, nil
}

// departmentPerformance groups a department's tasks by status over a date
// range. An absent range defaults to month-to-date.
func (s *ReportService) departmentPerformance(ctx context.Context, filters model.ReportFilters) (any, error) {
	from, to := filters.From, filters.To
	if from == nil || to == nil {
		now := time.Now().UTC()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		from, to = &start, &now
	}

	tasks, err := s.tasks.Search(ctx, repository.TaskFilter{
		Department:  filters.Department,
		CreatedFrom: from,
		CreatedTo:   to,
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	byStatus := make(map[model.Status][]model.Task)
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}
	statuses := make([]model.Status, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	groups := make([]model.StatusGroup, 0, len(statuses))
	for _, status := range statuses {
		group := model.StatusGroup{Status: status, Count: len(byStatus[status])}
		var completionTimes []float64
		for _, t := range byStatus[status] {
			if t.CompletionTime != nil {
				completionTimes = append(completionTimes, *t.CompletionTime)
			}
			group.Tasks = append(group.Tasks, model.TaskDigest{
				Title:     t.Title,
				Priority:  t.Priority,
				CreatedAt: t.CreatedAt,
			})
		}
		group.AvgCompletionTime = mean(completionTimes)
		groups = append(groups, group)
	}
	return groups, nil
}

// userActivity counts tasks created and completed per user.
func (s *ReportService) userActivity(ctx context.Context, department string, filters model.ReportFilters) (any, error) {
	tasks, err := s.tasks.Search(ctx, repository.TaskFilter{
		Department:  department,
		CreatedFrom: filters.From,
		CreatedTo:   filters.To,
	})
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*model.UserActivity)
	record := func(userID string) *model.UserActivity {
		if row, ok := byUser[userID]; ok {
			return row
		}
		row := &model.UserActivity{UserID: userID}
		byUser[userID] = row
		return row
	}
	for _, t := range tasks {
		if filters.UserID != "" && t.CreatedBy != filters.UserID {
			continue
		}
		row := record(t.CreatedBy)
		row.Created++
		if t.Status == model.StatusDone {
			row.Completed++
		}
	}
	if len(byUser) == 0 {
		return nil, nil
	}

	rows := make([]model.UserActivity, 0, len(byUser))
	for _, row := range byUser {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows, nil
}

// archiveSummary counts archive records by department and by the status
// the task held when archived.
func (s *ReportService) archiveSummary(ctx context.Context, department string, filters model.ReportFilters) (any, error) {
	records, err := s.archives.Search(ctx, repository.ArchiveFilter{
		Department:   department,
		ArchivedFrom: filters.From,
		ArchivedTo:   filters.To,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	summary := model.ArchiveSummary{
		TotalArchived: len(records),
		ByDepartment:  make(map[string]int),
		ByStatus:      make(map[string]int),
	}
	for _, rec := range records {
		summary.ByDepartment[rec.Department]++
		summary.ByStatus[string(rec.Status)]++
	}
	return &summary, nil
}

func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	avg := sum / float64(len(vals))
	return &avg
}

// exportCSV flattens a report payload into rows: an object becomes a
// header plus one row, a list of objects a header plus one row each. The
// payload round-trips through JSON so stored and freshly generated
// reports export identically.
func exportCSV(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, apperr.Validationf("encode report: %v", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, apperr.Validationf("decode report: %v", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	switch v := generic.(type) {
	case map[string]any:
		if err := writeCSVObject(w, v); err != nil {
			return nil, err
		}
	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, apperr.Validationf("report payload is not tabular")
			}
			if err := writeCSVRow(w, obj, i == 0); err != nil {
				return nil, err
			}
		}
	default:
		return nil, apperr.Validationf("report payload is not tabular")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperr.Validationf("write csv: %v", err)
	}
	return buf.Bytes(), nil
}

func writeCSVObject(w *csv.Writer, obj map[string]any) error {
	return writeCSVRow(w, obj, true)
}

func writeCSVRow(w *csv.Writer, obj map[string]any, withHeader bool) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if withHeader {
		if err := w.Write(keys); err != nil {
			return apperr.Validationf("write csv: %v", err)
		}
	}
	row := make([]string, len(keys))
	for i, k := range keys {
		row[i] = csvCell(obj[k])
	}
	if err := w.Write(row); err != nil {
		return apperr.Validationf("write csv: %v", err)
	}
	return nil
}

// csvCell renders scalars directly; nested structures stay JSON-encoded.
func csvCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64, bool:
		return fmt.Sprint(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
