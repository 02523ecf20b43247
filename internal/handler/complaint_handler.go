package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk-api/internal/dto"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	"github.com/noah-isme/complaint-desk-api/internal/service"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
	"github.com/noah-isme/complaint-desk-api/pkg/response"
)

const attachmentField = "attachment"

type complaintService interface {
	Submit(ctx context.Context, identity *models.Identity, req dto.CreateComplaintRequest, upload *service.AttachmentUpload) (*models.Complaint, error)
	View(ctx context.Context, identity *models.Identity, id int64) (*models.Complaint, error)
	ListMine(ctx context.Context, identity *models.Identity) ([]models.Complaint, error)
	ListAll(ctx context.Context, page int) ([]models.Complaint, *models.Pagination, error)
	Search(ctx context.Context, identity *models.Identity, query string) ([]models.Complaint, error)
	UnreadCount(ctx context.Context, identity *models.Identity) (int, error)
	AttachmentURL(ctx context.Context, identity *models.Identity, id int64) (*dto.AttachmentURLResponse, error)
	OpenAttachment(ctx context.Context, identity *models.Identity, id int64, token string) (*os.File, string, error)
}

// ComplaintHandler exposes reporter facing complaint endpoints.
type ComplaintHandler struct {
	service complaintService
}

// NewComplaintHandler constructs a complaint handler.
func NewComplaintHandler(svc complaintService) *ComplaintHandler {
	return &ComplaintHandler{service: svc}
}

// Create godoc
// @Summary Submit a complaint
// @Description Accepts multipart/form-data with an optional attachment, or a JSON body.
// @Tags Complaints
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category formData string false "Category"
// @Param priority formData string false "low, medium or high"
// @Param attachment formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /complaints/create/ [post]
func (h *ComplaintHandler) Create(c *gin.Context) {
	var req dto.CreateComplaintRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}

	var upload *service.AttachmentUpload
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile(attachmentField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attachment"))
			return
		default:
			file, err := header.Open()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment"))
				return
			}
			defer file.Close()
			upload = &service.AttachmentUpload{Filename: header.Filename, Size: header.Size, Content: file}
		}
	}

	complaint, err := h.service.Submit(c.Request.Context(), identityFromContext(c), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, complaint)
}

// Mine godoc
// @Summary List my complaints
// @Tags Complaints
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /complaints/mine/ [get]
func (h *ComplaintHandler) Mine(c *gin.Context) {
	complaints, err := h.service.ListMine(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints, nil)
}

// Detail godoc
// @Summary View a complaint
// @Description Viewing your own complaint acknowledges the latest staff update.
// @Tags Complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id}/ [get]
func (h *ComplaintHandler) Detail(c *gin.Context) {
	id, err := complaintIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	complaint, err := h.service.View(c.Request.Context(), identityFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaint, nil)
}

// List godoc
// @Summary List all complaints
// @Tags Complaints
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} response.Envelope
// @Router /complaints/ [get]
func (h *ComplaintHandler) List(c *gin.Context) {
	complaints, pagination, err := h.service.ListAll(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints, pagination)
}

// Search godoc
// @Summary Search complaints
// @Description An empty query returns no results.
// @Tags Complaints
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /search/ [get]
func (h *ComplaintHandler) Search(c *gin.Context) {
	query := c.Query("q")
	complaints, err := h.service.Search(c.Request.Context(), identityFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints, nil, map[string]interface{}{"query": strings.TrimSpace(query)})
}

// Unread godoc
// @Summary Unread complaint count
// @Description Returns a bare {"unread": n} object for badge polling.
// @Tags Complaints
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse
// @Failure 401 {object} response.Envelope
// @Router /api/unread/ [get]
func (h *ComplaintHandler) Unread(c *gin.Context) {
	total, err := h.service.UnreadCount(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, dto.UnreadCountResponse{Unread: total})
}

// AttachmentURL godoc
// @Summary Signed attachment link
// @Tags Complaints
// @Produce json
// @Param id path int true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id}/attachment/ [get]
func (h *ComplaintHandler) AttachmentURL(c *gin.Context) {
	id, err := complaintIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	link, err := h.service.AttachmentURL(c.Request.Context(), identityFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadAttachment godoc
// @Summary Download an attachment
// @Tags Complaints
// @Produce octet-stream
// @Param id path int true "Complaint ID"
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id}/attachment/download/ [get]
func (h *ComplaintHandler) DownloadAttachment(c *gin.Context) {
	id, err := complaintIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token required"))
		return
	}

	file, name, err := h.service.OpenAttachment(c.Request.Context(), identityFromContext(c), id, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read attachment"))
		return
	}

	c.Header("Cache-Control", "private, no-store")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), file)
}
