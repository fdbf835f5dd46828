package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camcoord/coordinator/internal/apierr"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/observability"
	"github.com/camcoord/coordinator/internal/store"
	"github.com/camcoord/coordinator/internal/validate"
	"github.com/camcoord/coordinator/pkg/dto"
)

type EventHandler struct {
	store   store.Store
	respond func(*gin.Context, error)
}

func NewEventHandler(s store.Store, respondErr func(*gin.Context, error)) *EventHandler {
	return &EventHandler{store: s, respond: respondErr}
}

// Create starts a new event for a camera's motion detection, per
// spec.md §4.3.2.
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, apierr.Fieldf("body", err.Error()))
		return
	}
	if verr := validate.CreateEvent(req); verr != nil {
		h.respond(c, verr)
		return
	}

	ts, _ := time.Parse(time.RFC3339, req.Timestamp)
	event, err := h.store.CreateEvent(c.Request.Context(), req.Camera, ts, req.MotionScore, req.Confidence)
	if err != nil {
		h.respond(c, err)
		return
	}

	observability.EventsCreated.WithLabelValues(req.Camera).Inc()

	c.JSON(http.StatusCreated, dto.CreateEventResponse{
		ID:                  event.ID,
		Timestamp:           event.Timestamp.Format(timeFormat),
		CreatedAt:           event.CreatedAt.Format(timeFormat),
		Status:              string(event.Status),
		MP4ConversionStatus: string(event.MP4ConversionStatus),
	})
}

// List returns events paginated, newest-first, with optional filters,
// per spec.md §4.3.2.
func (h *EventHandler) List(c *gin.Context) {
	filter := store.EventFilter{Camera: c.Query("camera")}

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
	if status := c.Query("status"); status != "" {
		filter.Status = models.EventStatus(status)
	}
	if mp4Status := c.Query("mp4_status"); mp4Status != "" {
		filter.MP4Status = models.MP4ConversionStatus(mp4Status)
	}
	if aiStr := c.Query("ai_processed"); aiStr != "" {
		b := aiStr == "true" || aiStr == "1"
		filter.AIProcessed = &b
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, total, err := h.store.ListEvents(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.respond(c, err)
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventToDTO(&events[i]))
	}
	c.JSON(http.StatusOK, dto.EventListResponse{Events: resp, Total: total})
}

// Get returns the full record for one event by ID.
func (h *EventHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respond(c, apierr.Fieldf("id", "must be an integer"))
		return
	}

	event, err := h.store.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, eventToDTO(event))
}

// Neighbors returns previous/next event IDs by ID order, optionally
// scoped to a camera, per spec.md §4.3.2.
func (h *EventHandler) Neighbors(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respond(c, apierr.Fieldf("id", "must be an integer"))
		return
	}

	prev, next, err := h.store.EventNeighbors(c.Request.Context(), id, c.Query("camera"))
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EventNeighborsResponse{PreviousID: prev, NextID: next})
}

// UpdateFileStatus records an artifact's arrival on disk, per
// spec.md §4.3.2.
func (h *EventHandler) UpdateFileStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respond(c, apierr.Fieldf("id", "must be an integer"))
		return
	}

	var req dto.UpdateFileStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, apierr.Fieldf("body", err.Error()))
		return
	}
	if verr := validate.UpdateFileStatus(req); verr != nil {
		h.respond(c, verr)
		return
	}

	if err := h.store.UpdateFileStatus(c.Request.Context(), id, models.ArtifactKind(req.Artifact), req.Path, req.DurationSeconds); err != nil {
		h.respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStatus transitions the camera-driven status column, per
// spec.md §4.3.2 and §4.4.
func (h *EventHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respond(c, apierr.Fieldf("id", "must be an integer"))
		return
	}

	var req dto.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, apierr.Fieldf("body", err.Error()))
		return
	}
	target, verr := validate.UpdateEventStatus(req)
	if verr != nil {
		h.respond(c, verr)
		return
	}

	if err := h.store.UpdateEventStatus(c.Request.Context(), id, target); err != nil {
		h.respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func eventToDTO(e *models.Event) dto.EventResponse {
	resp := dto.EventResponse{
		ID:                   e.ID,
		Camera:               e.Camera,
		Timestamp:            e.Timestamp.Format(timeFormat),
		CreatedAt:            e.CreatedAt.Format(timeFormat),
		MotionScore:          e.MotionScore,
		Confidence:           e.Confidence,
		Status:               string(e.Status),
		ImageAPath:           e.ImageAPath,
		ImageATransferred:    e.ImageATransferred,
		ImageBPath:           e.ImageBPath,
		ImageBTransferred:    e.ImageBTransferred,
		ThumbnailPath:        e.ThumbnailPath,
		ThumbnailTransferred: e.ThumbnailTransferred,
		VideoH264Path:        e.VideoH264Path,
		VideoH264Transferred: e.VideoH264Transferred,
		VideoMP4Path:         e.VideoMP4Path,
		VideoDurationSeconds: e.VideoDurationSeconds,
		MP4ConversionStatus:  string(e.MP4ConversionStatus),
		AIProcessed:          e.AIProcessed,
		AIPersonDetected:     e.AIPersonDetected,
		AIConfidence:         e.AIConfidence,
		AIObjects:            e.AIObjects,
		AIDescription:        e.AIDescription,
		AIPhrase:             e.AIPhrase,
		AIError:              e.AIError,
	}
	if e.MP4ConvertedAt != nil {
		s := e.MP4ConvertedAt.Format(timeFormat)
		resp.MP4ConvertedAt = &s
	}
	if e.AIProcessedAt != nil {
		s := e.AIProcessedAt.Format(timeFormat)
		resp.AIProcessedAt = &s
	}
	return resp
}
