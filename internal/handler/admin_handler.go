package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
	"github.com/bfc-aero/charter-leads-api/pkg/response"
)

type adminService interface {
	List(ctx context.Context, params models.SubmissionListParams) ([]models.Submission, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Submission, error)
	Update(ctx context.Context, id int64, update models.SubmissionUpdate) (*models.Submission, error)
	ExportCSV(ctx context.Context, filter models.SubmissionFilter) ([]byte, error)
	ExportPDF(ctx context.Context, filter models.SubmissionFilter) ([]byte, error)
}

// AdminHandler wires the operator review endpoints.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// List godoc
// @Summary List submissions
// @Description Paginated, filterable submission listing
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param source query string false "Filter by source"
// @Param q query string false "Free-text search"
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Param sort query string false "Sort order" Enums(created_desc, created_asc, updated_desc, updated_asc)
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/submissions [get]
func (h *AdminHandler) List(c *gin.Context) {
	params := models.SubmissionListParams{
		Filter:   filterFromQuery(c),
		Page:     intQuery(c, 1, "page"),
		PageSize: intQuery(c, 20, "pageSize", "page_size"),
		Sort:     c.Query("sort"),
	}

	rows, pagination, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Fetch one submission
// @Description Return one submission including its payload snapshot
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	sub, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sub, nil)
}

// Update godoc
// @Summary Update a submission
// @Description Patch the review status and/or admin notes
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Param payload body models.SubmissionUpdate true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/submissions/{id} [patch]
func (h *AdminHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var update models.SubmissionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	sub, err := h.service.Update(c.Request.Context(), id, update)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sub, nil)
}

// ExportCSV godoc
// @Summary Export submissions as CSV
// @Description Download every matching submission as a CSV file
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param source query string false "Filter by source"
// @Param q query string false "Free-text search"
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Success 200 {string} string "CSV payload"
// @Failure 401 {object} response.Envelope
// @Router /admin/submissions/export.csv [get]
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	payload, err := h.service.ExportCSV(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Download(c, "text/csv; charset=utf-8", "submissions", "csv", payload)
}

// ExportPDF godoc
// @Summary Export submissions as PDF
// @Description Download every matching submission as a tabular PDF
// @Tags Admin
// @Produce application/pdf
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param source query string false "Filter by source"
// @Param q query string false "Free-text search"
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Success 200 {string} string "PDF payload"
// @Failure 401 {object} response.Envelope
// @Router /admin/submissions/export.pdf [get]
func (h *AdminHandler) ExportPDF(c *gin.Context) {
	payload, err := h.service.ExportPDF(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Download(c, "application/pdf", "submissions", "pdf", payload)
}

func filterFromQuery(c *gin.Context) models.SubmissionFilter {
	return models.SubmissionFilter{
		Status:   c.Query("status"),
		Source:   c.Query("source"),
		Query:    c.Query("q"),
		DateFrom: queryFirst(c, "dateFrom", "date_from"),
		DateTo:   queryFirst(c, "dateTo", "date_to"),
	}
}

// queryFirst returns the first non-empty value among aliases of the same
// query parameter. The snake_case spellings are kept for older clients.
func queryFirst(c *gin.Context, names ...string) string {
	for _, name := range names {
		if value := c.Query(name); value != "" {
			return value
		}
	}
	return ""
}

func intQuery(c *gin.Context, fallback int, names ...string) int {
	raw := queryFirst(c, names...)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Submission not found."))
		return 0, false
	}
	return id, true
}
