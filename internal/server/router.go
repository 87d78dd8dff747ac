package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/XrOne/studio-jenial-sub004/internal/handlers"
	"github.com/XrOne/studio-jenial-sub004/internal/middleware"
)

type RouterConfig struct {
	ProjectHandler       *handlers.ProjectHandler
	SegmentHandler       *handlers.SegmentHandler
	GenerationHandler    *handlers.GenerationHandler
	SSEHandler           *handlers.SSEHandler
	CredentialMiddleware *middleware.CredentialMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", middleware.UserKeyHeader},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Projects and tracks
		api.POST("/projects", cfg.ProjectHandler.Create)
		api.GET("/projects", cfg.ProjectHandler.List)
		api.GET("/projects/:project_id", cfg.ProjectHandler.Get)
		api.DELETE("/projects/:project_id", cfg.ProjectHandler.Delete)
		api.POST("/projects/:project_id/tracks", cfg.ProjectHandler.CreateTrack)
		api.GET("/projects/:project_id/tracks", cfg.ProjectHandler.ListTracks)
		api.GET("/tracks/:track_id/layout", cfg.ProjectHandler.TrackLayout)
		api.GET("/tracks/:track_id/edl", cfg.ProjectHandler.ExportEDL)

		// Segments
		api.POST("/segments", cfg.SegmentHandler.Create)
		api.GET("/segments/:segment_id", cfg.SegmentHandler.Get)
		api.DELETE("/segments/:segment_id", cfg.SegmentHandler.Delete)
		api.PATCH("/segments/:segment_id/timing", cfg.SegmentHandler.UpdateTiming)
		api.POST("/segments/:segment_id/lock", cfg.SegmentHandler.SetLocked)
		api.POST("/segments/:segment_id/activate", cfg.SegmentHandler.ActivateRevision)
		api.GET("/segments/:segment_id/revisions", cfg.SegmentHandler.ListRevisions)

		// SSE
		api.GET("/projects/:project_id/events", cfg.SSEHandler.SSEStream)

		// Generation
		gen := api.Group("/")
		gen.Use(cfg.CredentialMiddleware.ExtractUserKey())
		gen.GET("/generation/providers", cfg.GenerationHandler.Probe)
		gen.POST("/generation/generate", cfg.GenerationHandler.Generate)
		gen.POST("/generation/batch", cfg.GenerationHandler.GenerateBatch)
		gen.POST("/generation/reconcile", cfg.GenerationHandler.Reconcile)
		gen.POST("/revisions/:revision_id/retry", cfg.GenerationHandler.Retry)
	}

	return router
}
