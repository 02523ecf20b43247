package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk-api/internal/dto"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	"github.com/noah-isme/complaint-desk-api/internal/service"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
)

type fakeAdminSrv struct {
	filter  dto.AdminComplaintFilter
	update  *dto.AdminUpdateComplaintRequest
	id      int64
	listErr error
}

func (f *fakeAdminSrv) AdminList(_ context.Context, _ *models.Identity, filter dto.AdminComplaintFilter) ([]models.Complaint, *models.Pagination, error) {
	f.filter = filter
	if f.listErr != nil {
		return nil, nil, f.listErr
	}
	return []models.Complaint{}, models.NewPagination(filter.Page, 20, 0), nil
}

func (f *fakeAdminSrv) AdminUpdate(_ context.Context, _ *models.Identity, id int64, req dto.AdminUpdateComplaintRequest) (*models.Complaint, error) {
	f.id = id
	f.update = &req
	return &models.Complaint{ID: id}, nil
}

type fakeExporter struct {
	format string
	filter dto.AdminComplaintFilter
}

func (f *fakeExporter) Export(_ context.Context, _ *models.Identity, filter dto.AdminComplaintFilter, format string) (*service.ExportResult, error) {
	f.format = format
	f.filter = filter
	if format == "xml" {
		return nil, appErrors.Validation("unsupported export format", map[string]string{"format": "must be csv or pdf"})
	}
	return &service.ExportResult{Filename: "complaints_20260101_000000.csv", ContentType: "text/csv", Payload: []byte("id\n")}, nil
}

func TestAdminComplaintHandlerListParsesFilters(t *testing.T) {
	srv := &fakeAdminSrv{}
	handler := NewAdminComplaintHandler(srv, &fakeExporter{})
	c, rec := newTestContext(http.MethodGet, "/admin/complaints/?q=+lamp+&status=open&priority=high&page=2", nil)
	authenticate(c, "staff", true)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.AdminComplaintFilter{
		Query:    "lamp",
		Status:   models.ComplaintStatusOpen,
		Priority: models.ComplaintPriorityHigh,
		Page:     2,
	}, srv.filter)
}

func TestAdminComplaintHandlerListForbidden(t *testing.T) {
	handler := NewAdminComplaintHandler(&fakeAdminSrv{listErr: appErrors.Clone(appErrors.ErrForbidden, "staff only")}, &fakeExporter{})
	c, rec := newTestContext(http.MethodGet, "/admin/complaints/", nil)
	authenticate(c, "alice", false)

	handler.List(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminComplaintHandlerUpdateBindsPartialJSON(t *testing.T) {
	srv := &fakeAdminSrv{}
	handler := NewAdminComplaintHandler(srv, &fakeExporter{})
	c, rec := newTestContext(http.MethodPost, "/admin/complaints/9/update/", strings.NewReader(`{"admin_comment":"on it"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	authenticate(c, "staff", true)

	handler.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.update)
	assert.EqualValues(t, 9, srv.id)
	assert.Nil(t, srv.update.Status)
	assert.Nil(t, srv.update.Priority)
	require.NotNil(t, srv.update.AdminComment)
	assert.Equal(t, "on it", *srv.update.AdminComment)
}

func TestAdminComplaintHandlerUpdateBindsForm(t *testing.T) {
	srv := &fakeAdminSrv{}
	handler := NewAdminComplaintHandler(srv, &fakeExporter{})
	c, rec := newTestContext(http.MethodPost, "/admin/complaints/9/update/", strings.NewReader("status=resolved"))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	authenticate(c, "staff", true)

	handler.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.update.Status)
	assert.Equal(t, models.ComplaintStatusResolved, *srv.update.Status)
	assert.Nil(t, srv.update.AdminComment)
}

func TestAdminComplaintHandlerExportStreamsFile(t *testing.T) {
	exporter := &fakeExporter{}
	handler := NewAdminComplaintHandler(&fakeAdminSrv{}, exporter)
	c, rec := newTestContext(http.MethodGet, "/admin/complaints/export/?format=csv&status=closed", nil)
	authenticate(c, "staff", true)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Equal(t, models.ComplaintStatusClosed, exporter.filter.Status)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "complaints_20260101_000000.csv")
	assert.Equal(t, "id\n", rec.Body.String())
}

func TestAdminComplaintHandlerExportRejectsUnknownFormat(t *testing.T) {
	handler := NewAdminComplaintHandler(&fakeAdminSrv{}, &fakeExporter{})
	c, rec := newTestContext(http.MethodGet, "/admin/complaints/export/?format=xml", nil)
	authenticate(c, "staff", true)

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"format"`)
}
