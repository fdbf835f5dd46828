package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/camcoord/coordinator/internal/api/handlers"
	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/store"
)

type RouterConfig struct {
	Store           store.Store
	Artifacts       *artifact.Store
	AllowedOrigins  []string
	HealthProbeTime time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	r.Use(cors.New(corsConfig))

	systemH := handlers.NewSystemHandler(cfg.Store, cfg.HealthProbeTime)
	r.GET("/healthz", systemH.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	cameraH := handlers.NewCameraHandler(cfg.Store, cfg.Artifacts, RespondError)
	v1.POST("/cameras", cameraH.Register)
	v1.GET("/cameras", cameraH.List)
	v1.GET("/cameras/:stable_name", cameraH.Get)

	eventH := handlers.NewEventHandler(cfg.Store, RespondError)
	v1.POST("/events", eventH.Create)
	v1.GET("/events", eventH.List)
	v1.GET("/events/:id", eventH.Get)
	v1.GET("/events/:id/neighbors", eventH.Neighbors)
	v1.POST("/events/:id/files", eventH.UpdateFileStatus)
	v1.POST("/events/:id/status", eventH.UpdateStatus)

	logH := handlers.NewLogHandler(cfg.Store, RespondError)
	v1.POST("/logs", logH.Ingest)
	v1.GET("/logs", logH.Query)
	v1.GET("/logs/since/:id", logH.Since)

	statsH := handlers.NewStatsHandler(cfg.Store, RespondError)
	v1.GET("/stats/cameras", statsH.ByCamera)
	v1.GET("/stats/status", statsH.ByStatus)
	v1.GET("/stats/daily", statsH.Daily)

	return r
}
