package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/http/response"
	apperr "github.com/yungbote/findable-backend/internal/pkg/errors"
	"github.com/yungbote/findable-backend/internal/services"
)

// Sweeper runs one sweep batch on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (int, error)
}

type MetricsHandler struct {
	metrics services.FindabilityMetricsService
	sweeper Sweeper
}

func NewMetricsHandler(metrics services.FindabilityMetricsService, sweeper Sweeper) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, sweeper: sweeper}
}

// POST /api/sessions/:id/process
func (h *MetricsHandler) ProcessSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	if err := h.metrics.ProcessCompletedSession(c.Request.Context(), sessionID); err != nil {
		response.RespondServiceError(c, "process_session_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"sessionId": sessionID, "processed": true})
}

// POST /api/metrics/sweep
func (h *MetricsHandler) Sweep(c *gin.Context) {
	if h.sweeper == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "sweep_unavailable", fmt.Errorf("sweeper not configured"))
		return
	}
	n, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "sweep_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"processed": n})
}

// GET /api/projects/:id/metrics?kind=&limit=
func (h *MetricsHandler) ListProjectMetrics(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
		return
	}
	kind := types.MetricKind(strings.TrimSpace(c.Query("kind")))
	rows, err := h.metrics.ListProjectMetrics(c.Request.Context(), projectID, kind, limit)
	if err != nil {
		response.RespondServiceError(c, "list_metrics_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"metrics": rows})
}

// GET /api/projects/:id/metrics/realtime?hours=
func (h *MetricsHandler) RealtimeMetrics(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	hours, err := queryInt(c, "hours")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_hours", err)
		return
	}
	out, err := h.metrics.CalculateRealtimeMetrics(c.Request.Context(), projectID, hours)
	if err != nil {
		response.RespondServiceError(c, "realtime_metrics_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// queryInt returns 0 when the parameter is absent.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, apperr.ErrInvalidArgument)
	}
	return v, nil
}
