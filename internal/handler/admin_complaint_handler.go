package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk-api/internal/dto"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	"github.com/noah-isme/complaint-desk-api/internal/service"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
	"github.com/noah-isme/complaint-desk-api/pkg/response"
)

type adminComplaintService interface {
	AdminList(ctx context.Context, identity *models.Identity, filter dto.AdminComplaintFilter) ([]models.Complaint, *models.Pagination, error)
	AdminUpdate(ctx context.Context, identity *models.Identity, id int64, req dto.AdminUpdateComplaintRequest) (*models.Complaint, error)
}

type complaintExporter interface {
	Export(ctx context.Context, identity *models.Identity, filter dto.AdminComplaintFilter, format string) (*service.ExportResult, error)
}

// AdminComplaintHandler exposes staff complaint management.
type AdminComplaintHandler struct {
	service  adminComplaintService
	exporter complaintExporter
}

// NewAdminComplaintHandler constructs the staff handler.
func NewAdminComplaintHandler(svc adminComplaintService, exporter complaintExporter) *AdminComplaintHandler {
	return &AdminComplaintHandler{service: svc, exporter: exporter}
}

func adminFilterFromQuery(c *gin.Context) dto.AdminComplaintFilter {
	return dto.AdminComplaintFilter{
		Query:    strings.TrimSpace(c.Query("q")),
		Status:   models.ComplaintStatus(strings.TrimSpace(c.Query("status"))),
		Priority: models.ComplaintPriority(strings.TrimSpace(c.Query("priority"))),
		Page:     pageFromQuery(c),
	}
}

// List godoc
// @Summary Staff complaint list
// @Tags Admin
// @Produce json
// @Param q query string false "Matches title, description or reporter username"
// @Param status query string false "open, in_progress, resolved or closed"
// @Param priority query string false "low, medium or high"
// @Param page query int false "Page number"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/complaints/ [get]
func (h *AdminComplaintHandler) List(c *gin.Context) {
	filter := adminFilterFromQuery(c)
	complaints, pagination, err := h.service.AdminList(c.Request.Context(), identityFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints, pagination, map[string]interface{}{
		"q":        filter.Query,
		"status":   filter.Status,
		"priority": filter.Priority,
	})
}

// Update godoc
// @Summary Staff complaint update
// @Description Partial update; any update marks the complaint unread for its reporter.
// @Tags Admin
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param id path int true "Complaint ID"
// @Param payload body dto.AdminUpdateComplaintRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/complaints/{id}/update/ [post]
func (h *AdminComplaintHandler) Update(c *gin.Context) {
	id, err := complaintIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AdminUpdateComplaintRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	complaint, err := h.service.AdminUpdate(c.Request.Context(), identityFromContext(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// Export godoc
// @Summary Export complaints
// @Description Renders every complaint matching the staff filters as CSV or PDF.
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param q query string false "Search term"
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/complaints/export/ [get]
func (h *AdminComplaintHandler) Export(c *gin.Context) {
	result, err := h.exporter.Export(c.Request.Context(), identityFromContext(c), adminFilterFromQuery(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Payload)
}
