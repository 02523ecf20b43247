package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk-api/internal/dto"
	"github.com/noah-isme/complaint-desk-api/internal/models"
	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
)

type fakeDashboardSrv struct {
	summary *dto.DashboardSummary
}

func (f *fakeDashboardSrv) DashboardSummary(_ context.Context, identity *models.Identity) (*dto.DashboardSummary, error) {
	if identity == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return f.summary, nil
}

func TestDashboardHandlerRequiresIdentity(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{})
	c, rec := newTestContext(http.MethodGet, "/dashboard/", nil)

	handler.Summary(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerSummary(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{summary: &dto.DashboardSummary{
		TotalMine:               3,
		OpenMine:                2,
		HighPriorityPendingMine: 1,
		UnreadMine:              1,
		RecentMine:              []models.Complaint{{ID: 3}, {ID: 2}, {ID: 1}},
	}})
	c, rec := newTestContext(http.MethodGet, "/dashboard/", nil)
	authenticate(c, "alice", false)

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 3, data["total_mine"])
	assert.EqualValues(t, 1, data["high_priority_pending_mine"])
	assert.Len(t, data["recent_mine"], 3)
}
