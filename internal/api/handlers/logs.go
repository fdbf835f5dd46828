package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camcoord/coordinator/internal/apierr"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/observability"
	"github.com/camcoord/coordinator/internal/store"
	"github.com/camcoord/coordinator/internal/validate"
	"github.com/camcoord/coordinator/pkg/dto"
)

type LogHandler struct {
	store   store.Store
	respond func(*gin.Context, error)
}

func NewLogHandler(s store.Store, respondErr func(*gin.Context, error)) *LogHandler {
	return &LogHandler{store: s, respond: respondErr}
}

// Ingest batch-inserts log lines atomically, per spec.md §4.3.3 and §4.6.
func (h *LogHandler) Ingest(c *gin.Context) {
	var req dto.IngestLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, apierr.Fieldf("body", err.Error()))
		return
	}
	if verr := validate.IngestLogs(req); verr != nil {
		h.respond(c, verr)
		return
	}

	lines := make([]models.LogLine, 0, len(req.Lines))
	for _, in := range req.Lines {
		ts, _ := time.Parse(time.RFC3339, in.Timestamp)
		lines = append(lines, models.LogLine{
			Source:    in.Source,
			Timestamp: ts,
			Level:     models.LogLevel(in.Level),
			Message:   in.Message,
		})
		observability.LogLinesIngested.WithLabelValues(in.Source, in.Level).Inc()
	}

	first, last, err := h.store.BatchInsertLogs(c.Request.Context(), lines)
	if err != nil {
		h.respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.IngestLogsResponse{
		Accepted: len(lines),
		FirstID:  first,
		LastID:   last,
	})
}

// Query returns paginated log lines with filters, per spec.md §4.3.3.
func (h *LogHandler) Query(c *gin.Context) {
	filter := buildLogFilter(c)

	order := store.SortNewestFirst
	if c.Query("order") == "asc" {
		order = store.SortOldestFirst
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	lines, total, err := h.store.QueryLogs(c.Request.Context(), filter, order, limit, offset)
	if err != nil {
		h.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LogQueryResponse{Lines: logsToDTO(lines), Total: total})
}

// Since returns log lines after a watermark ID, ascending, per
// spec.md §4.3.3 and §4.6.
func (h *LogHandler) Since(c *gin.Context) {
	sinceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respond(c, apierr.Fieldf("id", "must be an integer"))
		return
	}

	filter := buildLogFilter(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	lines, err := h.store.QueryLogsSinceID(c.Request.Context(), sinceID, filter, limit)
	if err != nil {
		h.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LogQueryResponse{Lines: logsToDTO(lines), Total: len(lines)})
}

func buildLogFilter(c *gin.Context) store.LogFilter {
	filter := store.LogFilter{Source: c.Query("source")}

	if levelsStr := c.Query("levels"); levelsStr != "" {
		for _, l := range strings.Split(levelsStr, ",") {
			filter.Levels = append(filter.Levels, models.LogLevel(strings.TrimSpace(l)))
		}
	}
	if fromStr := c.Query("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.From = &t
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.To = &t
		}
	}
	return filter
}

func logsToDTO(lines []models.LogLine) []dto.LogLineResponse {
	resp := make([]dto.LogLineResponse, 0, len(lines))
	for _, l := range lines {
		resp = append(resp, dto.LogLineResponse{
			ID:        l.ID,
			Source:    l.Source,
			Timestamp: l.Timestamp.Format(timeFormat),
			Level:     string(l.Level),
			Message:   l.Message,
		})
	}
	return resp
}
