package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/camcoord/coordinator/internal/apierr"
	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/models"
	"github.com/camcoord/coordinator/internal/store"
	"github.com/camcoord/coordinator/internal/validate"
	"github.com/camcoord/coordinator/pkg/dto"
)

type CameraHandler struct {
	store     store.Store
	artifacts *artifact.Store
	respond   func(*gin.Context, error)
}

func NewCameraHandler(s store.Store, artifacts *artifact.Store, respondErr func(*gin.Context, error)) *CameraHandler {
	return &CameraHandler{store: s, artifacts: artifacts, respond: respondErr}
}

// Register upserts a camera by stable name, per spec.md §4.3.1.
func (h *CameraHandler) Register(c *gin.Context) {
	var req dto.RegisterCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, apierr.Fieldf("body", err.Error()))
		return
	}
	if verr := validate.RegisterCamera(req); verr != nil {
		h.respond(c, verr)
		return
	}

	camera, err := h.store.RegisterCamera(c.Request.Context(), req.StableName, req.DisplayName, req.Location, req.LastAddress)
	if err != nil {
		h.respond(c, err)
		return
	}

	if err := h.artifacts.EnsureCameraDirs(camera.StableName); err != nil {
		h.respond(c, apierr.New(apierr.KindInternal, err.Error()))
		return
	}

	c.JSON(http.StatusOK, cameraToDTO(camera))
}

// List returns all cameras ordered by stable name, per spec.md §4.3.1.
func (h *CameraHandler) List(c *gin.Context) {
	cameras, err := h.store.ListCameras(c.Request.Context())
	if err != nil {
		h.respond(c, err)
		return
	}

	resp := make([]dto.CameraResponse, 0, len(cameras))
	for i := range cameras {
		resp = append(resp, cameraToDTO(&cameras[i]))
	}
	c.JSON(http.StatusOK, dto.CameraListResponse{Cameras: resp, Total: len(resp)})
}

// Get returns a camera by stable name, NotFound otherwise.
func (h *CameraHandler) Get(c *gin.Context) {
	camera, err := h.store.GetCamera(c.Request.Context(), c.Param("stable_name"))
	if err != nil {
		h.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cameraToDTO(camera))
}

func cameraToDTO(camera *models.Camera) dto.CameraResponse {
	resp := dto.CameraResponse{
		ID:          camera.ID,
		StableName:  camera.StableName,
		DisplayName: camera.DisplayName,
		Location:    camera.Location,
		LastAddress: camera.LastAddress,
		Status:      string(camera.Status),
		CreatedAt:   camera.CreatedAt.Format(timeFormat),
		UpdatedAt:   camera.UpdatedAt.Format(timeFormat),
	}
	if camera.LastHeartbeatAt != nil {
		s := camera.LastHeartbeatAt.Format(timeFormat)
		resp.LastHeartbeatAt = &s
	}
	return resp
}
