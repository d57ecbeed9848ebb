package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/prakoso-dev/kb-api/internal/middleware"
	"github.com/prakoso-dev/kb-api/internal/service"
	"github.com/prakoso-dev/kb-api/pkg/config"
)

// Registry groups the handlers mounted on the API router.
type Registry struct {
	Auth      *AuthHandler
	Documents *DocumentHandler
	Requests  *KnowledgeRequestHandler
	Audit     *AuditHandler
	Exports   *ExportHandler
	Metrics   *MetricsHandler
}

// Register mounts all routes on the engine. Protected routes require a
// valid access token; role checks beyond identity stay with the services.
func Register(r *gin.Engine, cfg *config.Config, auth *service.AuthService, reg Registry) {
	r.GET("/health", reg.Metrics.Health)
	r.GET("/ready", reg.Metrics.Health)
	r.GET("/metrics", reg.Metrics.Prometheus)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", reg.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	docs := protected.Group("/documents")
	docs.POST("", reg.Documents.Create)
	docs.GET("", reg.Documents.List)
	docs.GET("/summary", reg.Documents.Summary)
	docs.GET("/:id", reg.Documents.Get)
	docs.PATCH("/:id", reg.Documents.EditMetadata)
	docs.POST("/:id/status", reg.Documents.ChangeStatus)
	docs.GET("/:id/versions", reg.Documents.ListVersions)
	docs.POST("/:id/versions", reg.Documents.UploadVersion)

	if cfg.Requests.Enabled {
		requests := protected.Group("/knowledge-requests")
		requests.POST("", reg.Requests.Create)
		requests.GET("", reg.Requests.List)
		requests.GET("/:id", reg.Requests.Get)
		requests.POST("/:id/review", reg.Requests.MarkInReview)
		requests.POST("/:id/resolve", reg.Requests.Resolve)
	}

	protected.GET("/audit-logs", reg.Audit.List)

	if cfg.Exports.Enabled {
		protected.GET("/exports/documents", reg.Exports.Documents)
	}
}
