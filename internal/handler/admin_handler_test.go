package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
)

type adminServiceMock struct {
	listRows   []models.Submission
	listPage   *models.Pagination
	listErr    error
	getResp    *models.Submission
	getErr     error
	updateResp *models.Submission
	updateErr  error
	csvPayload []byte
	pdfPayload []byte
	exportErr  error

	lastParams models.SubmissionListParams
	lastID     int64
	lastUpdate models.SubmissionUpdate
	lastFilter models.SubmissionFilter
}

func (m *adminServiceMock) List(ctx context.Context, params models.SubmissionListParams) ([]models.Submission, *models.Pagination, error) {
	m.lastParams = params
	return m.listRows, m.listPage, m.listErr
}

func (m *adminServiceMock) Get(ctx context.Context, id int64) (*models.Submission, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *adminServiceMock) Update(ctx context.Context, id int64, update models.SubmissionUpdate) (*models.Submission, error) {
	m.lastID = id
	m.lastUpdate = update
	return m.updateResp, m.updateErr
}

func (m *adminServiceMock) ExportCSV(ctx context.Context, filter models.SubmissionFilter) ([]byte, error) {
	m.lastFilter = filter
	return m.csvPayload, m.exportErr
}

func (m *adminServiceMock) ExportPDF(ctx context.Context, filter models.SubmissionFilter) ([]byte, error) {
	m.lastFilter = filter
	return m.pdfPayload, m.exportErr
}

func adminTestContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func adminListSubmission() models.Submission {
	pid := "BFC-2026-000001"
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return models.Submission{
		ID:        1,
		PublicID:  &pid,
		Source:    models.SourceContact,
		Status:    models.StatusNew,
		Name:      "Dana Field",
		Email:     "dana@example.com",
		Phone:     "+64215550101",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAdminListParsesQuery(t *testing.T) {
	mockSvc := &adminServiceMock{
		listRows: []models.Submission{adminListSubmission()},
		listPage: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 45, TotalPages: 5},
	}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet,
		"/api/admin/submissions?status=new&source=contact&q=dana&dateFrom=2026-03-01&dateTo=2026-03-31&sort=created_asc&page=2&pageSize=10", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new", mockSvc.lastParams.Filter.Status)
	assert.Equal(t, "contact", mockSvc.lastParams.Filter.Source)
	assert.Equal(t, "dana", mockSvc.lastParams.Filter.Query)
	assert.Equal(t, "2026-03-01", mockSvc.lastParams.Filter.DateFrom)
	assert.Equal(t, "2026-03-31", mockSvc.lastParams.Filter.DateTo)
	assert.Equal(t, "created_asc", mockSvc.lastParams.Sort)
	assert.Equal(t, 2, mockSvc.lastParams.Page)
	assert.Equal(t, 10, mockSvc.lastParams.PageSize)
	assert.Contains(t, w.Body.String(), `"total_count":45`)
}

func TestAdminListAcceptsSnakeCaseAliases(t *testing.T) {
	mockSvc := &adminServiceMock{listPage: &models.Pagination{Page: 1, PageSize: 10, TotalCount: 0, TotalPages: 1}}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet,
		"/api/admin/submissions?date_from=2026-03-01&date_to=2026-03-31&page_size=10", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-03-01", mockSvc.lastParams.Filter.DateFrom)
	assert.Equal(t, "2026-03-31", mockSvc.lastParams.Filter.DateTo)
	assert.Equal(t, 10, mockSvc.lastParams.PageSize)
}

func TestAdminListDefaults(t *testing.T) {
	mockSvc := &adminServiceMock{listPage: &models.Pagination{Page: 1, PageSize: 20, TotalCount: 0, TotalPages: 1}}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet, "/api/admin/submissions?page=abc", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mockSvc.lastParams.Page)
	assert.Equal(t, 20, mockSvc.lastParams.PageSize)
}

func TestAdminGet(t *testing.T) {
	sub := adminListSubmission()
	mockSvc := &adminServiceMock{getResp: &sub}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet, "/api/admin/submissions/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), mockSvc.lastID)
	assert.Contains(t, w.Body.String(), "BFC-2026-000001")
}

func TestAdminGetBadID(t *testing.T) {
	mockSvc := &adminServiceMock{}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet, "/api/admin/submissions/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(0), mockSvc.lastID)
}

func TestAdminGetNotFound(t *testing.T) {
	mockSvc := &adminServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "Submission not found.")}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet, "/api/admin/submissions/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminUpdate(t *testing.T) {
	sub := adminListSubmission()
	sub.Status = models.StatusContacted
	mockSvc := &adminServiceMock{updateResp: &sub}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodPatch, "/api/admin/submissions/1", map[string]interface{}{
		"status":      "contacted",
		"admin_notes": "Called back.",
	})
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastUpdate.Status)
	assert.Equal(t, models.StatusContacted, *mockSvc.lastUpdate.Status)
	require.NotNil(t, mockSvc.lastUpdate.AdminNotes)
	assert.Equal(t, "Called back.", *mockSvc.lastUpdate.AdminNotes)
}

func TestAdminUpdateMalformedBody(t *testing.T) {
	mockSvc := &adminServiceMock{}
	h := NewAdminHandler(mockSvc)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/api/admin/submissions/1", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	h.Update(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminExportCSV(t *testing.T) {
	mockSvc := &adminServiceMock{csvPayload: []byte("public_id\n")}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet, "/api/admin/submissions/export.csv?status=qualified", nil)
	h.ExportCSV(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "qualified", mockSvc.lastFilter.Status)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}

func TestAdminExportPDF(t *testing.T) {
	mockSvc := &adminServiceMock{pdfPayload: []byte("%PDF-1.4")}
	h := NewAdminHandler(mockSvc)

	c, w := adminTestContext(t, http.MethodGet, "/api/admin/submissions/export.pdf", nil)
	h.ExportPDF(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
}
