package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camcoord/coordinator/internal/store"
	"github.com/camcoord/coordinator/pkg/dto"
)

type SystemHandler struct {
	store           store.Store
	healthProbeTime time.Duration
}

func NewSystemHandler(s store.Store, healthProbeTime time.Duration) *SystemHandler {
	return &SystemHandler{store: s, healthProbeTime: healthProbeTime}
}

// Health responds "healthy" only if the Store answers a trivial probe
// within a bounded time, per spec.md §4.3.4.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.healthProbeTime)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unhealthy", Reason: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "healthy"})
}

type StatsHandler struct {
	store   store.Store
	respond func(*gin.Context, error)
}

func NewStatsHandler(s store.Store, respondErr func(*gin.Context, error)) *StatsHandler {
	return &StatsHandler{store: s, respond: respondErr}
}

// ByCamera returns total events per camera, per spec.md §4.3.5.
func (h *StatsHandler) ByCamera(c *gin.Context) {
	counts, err := h.store.CameraStats(c.Request.Context())
	if err != nil {
		h.respond(c, err)
		return
	}
	entries := make([]dto.CameraCountEntry, 0, len(counts))
	for _, cc := range counts {
		entries = append(entries, dto.CameraCountEntry{Camera: cc.Camera, Count: cc.Count})
	}
	c.JSON(http.StatusOK, dto.CameraStatsResponse{Cameras: entries})
}

// ByStatus returns total events per status, per spec.md §4.3.5.
func (h *StatsHandler) ByStatus(c *gin.Context) {
	counts, err := h.store.StatusStats(c.Request.Context())
	if err != nil {
		h.respond(c, err)
		return
	}
	entries := make([]dto.StatusCountEntry, 0, len(counts))
	for _, sc := range counts {
		entries = append(entries, dto.StatusCountEntry{Status: sc.Status, Count: sc.Count})
	}
	c.JSON(http.StatusOK, dto.StatusStatsResponse{Statuses: entries})
}

// Daily returns total events per day for the last N days, per
// spec.md §4.3.5.
func (h *StatsHandler) Daily(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	counts, err := h.store.DailyStats(c.Request.Context(), days)
	if err != nil {
		h.respond(c, err)
		return
	}
	entries := make([]dto.DailyCountEntry, 0, len(counts))
	for _, dc := range counts {
		entries = append(entries, dto.DailyCountEntry{Day: dc.Day, Count: dc.Count})
	}
	c.JSON(http.StatusOK, dto.DailyStatsResponse{Days: entries})
}
