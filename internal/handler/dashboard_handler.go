package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk-api/internal/dto"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	"github.com/noah-isme/complaint-desk-api/pkg/response"
)

type dashboardService interface {
	DashboardSummary(ctx context.Context, identity *models.Identity) (*dto.DashboardSummary, error)
}

// DashboardHandler serves the reporter dashboard.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Reporter dashboard
// @Description Totals, open, unread and pending high priority counts plus the most recent complaints.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/ [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.DashboardSummary(c.Request.Context(), identityFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
