package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/complaint-desk-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	up := ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	c, rec := newTestContext(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, up).Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"up"}}`, rec.Body.String())

	c, rec = newTestContext(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, up, down).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"up","redis":"down"}}`, rec.Body.String())
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(nil).Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())

	metrics := service.NewMetricsService()
	metrics.RecordComplaintSubmitted("high")
	c, rec = newTestContext(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(metrics).Prometheus(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "complaints_submitted_total")
}
