package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"task-tracker/internal/apperr"
	"task-tracker/internal/model"
)

// ReportRepository handles the report_templates and reports collections.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) CreateTemplate(ctx context.Context, tmpl *model.ReportTemplate) error {
	if err := r.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		return apperr.Persistence("create report template", err)
	}
	return nil
}

func (r *ReportRepository) ListTemplates(ctx context.Context) ([]model.ReportTemplate, error) {
	var templates []model.ReportTemplate
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&templates).Error; err != nil {
		return nil, apperr.Persistence("list report templates", err)
	}
	return templates, nil
}

func (r *ReportRepository) CountTemplates(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.ReportTemplate{}).Count(&n).Error; err != nil {
		return 0, apperr.Persistence("count report templates", err)
	}
	return n, nil
}

func (r *ReportRepository) CreateReport(ctx context.Context, report *model.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return apperr.Persistence("create report", err)
	}
	return nil
}

func (r *ReportRepository) FindReportByID(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	switch {
	case err == nil:
		return &report, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFoundf("report %s", id)
	default:
		return nil, apperr.Persistence("find report", err)
	}
}

func (r *ReportRepository) ListReportsByDepartment(ctx context.Context, department string) ([]model.Report, error) {
	var reports []model.Report
	if err := r.db.WithContext(ctx).Where("department = ?", department).
		Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, apperr.Persistence("list department reports", err)
	}
	return reports, nil
}

func (r *ReportRepository) ListReportsByGenerator(ctx context.Context, userID string) ([]model.Report, error) {
	var reports []model.Report
	if err := r.db.WithContext(ctx).Where("generated_by = ?", userID).
		Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, apperr.Persistence("list user reports", err)
	}
	return reports, nil
}
