package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/internal/validate"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
	"github.com/bfc-aero/charter-leads-api/pkg/export"
)

type adminSubmissionRepo interface {
	List(ctx context.Context, params models.SubmissionListParams) ([]models.Submission, int, error)
	FindByID(ctx context.Context, id int64) (*models.Submission, error)
	ListForExport(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	Update(ctx context.Context, id int64, update models.SubmissionUpdate) (*models.Submission, error)
}

var exportHeaders = []string{
	"public_id", "source", "status", "name", "email", "phone",
	"route_from", "route_to", "departure_date", "return_date",
	"passengers", "notes", "admin_notes",
	"created_at", "updated_at", "contacted_at",
}

// AdminService implements the operator-facing review queue: listing,
// single fetch, status/notes updates and bulk export.
type AdminService struct {
	repo   adminSubmissionRepo
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminSubmissionRepo, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// List returns one page of submissions plus pagination metadata computed
// over the same filter set. Payload snapshots are omitted from list rows.
func (s *AdminService) List(ctx context.Context, params models.SubmissionListParams) ([]models.Submission, *models.Pagination, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	for i := range rows {
		rows[i].Payload = nil
	}

	totalPages := int(math.Ceil(float64(total) / float64(params.PageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	return rows, &models.Pagination{
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// Get returns one full submission including its payload snapshot.
func (s *AdminService) Get(ctx context.Context, id int64) (*models.Submission, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Submission not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

// Update applies a status/notes patch and returns the refreshed record.
func (s *AdminService) Update(ctx context.Context, id int64, update models.SubmissionUpdate) (*models.Submission, error) {
	update, fieldErrs := validate.ParseAdminUpdate(update)
	if fieldErrs != nil {
		return nil, appErrors.Validation(fieldErrs)
	}

	sub, err := s.repo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Submission not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	return sub, nil
}

// ExportCSV renders every matching submission, newest first.
func (s *AdminService) ExportCSV(ctx context.Context, filter models.SubmissionFilter) ([]byte, error) {
	dataset, err := s.buildDataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return payload, nil
}

// ExportPDF renders the same dataset as a tabular PDF.
func (s *AdminService) ExportPDF(ctx context.Context, filter models.SubmissionFilter) ([]byte, error) {
	dataset, err := s.buildDataset(ctx, filter)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset, "Submissions")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return payload, nil
}

func (s *AdminService) buildDataset(ctx context.Context, filter models.SubmissionFilter) (export.Dataset, error) {
	rows, err := s.repo.ListForExport(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export submissions")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, sub := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"public_id":      stringPtrCell(sub.PublicID),
			"source":         string(sub.Source),
			"status":         string(sub.Status),
			"name":           sub.Name,
			"email":          sub.Email,
			"phone":          sub.Phone,
			"route_from":     stringPtrCell(sub.RouteFrom),
			"route_to":       stringPtrCell(sub.RouteTo),
			"departure_date": stringPtrCell(sub.DepartureDate),
			"return_date":    stringPtrCell(sub.ReturnDate),
			"passengers":     intPtrCell(sub.Passengers),
			"notes":          stringPtrCell(sub.Notes),
			"admin_notes":    sub.AdminNotes,
			"created_at":     sub.CreatedAt.UTC().Format(time.RFC3339),
			"updated_at":     sub.UpdatedAt.UTC().Format(time.RFC3339),
			"contacted_at":   timePtrCell(sub.ContactedAt),
		})
	}
	return dataset, nil
}

func stringPtrCell(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func intPtrCell(value *int) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%d", *value)
}

func timePtrCell(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
