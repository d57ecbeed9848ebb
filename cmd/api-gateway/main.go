package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/prakoso-dev/kb-api/api/swagger"
	"github.com/prakoso-dev/kb-api/internal/handler"
	"github.com/prakoso-dev/kb-api/internal/middleware"
	"github.com/prakoso-dev/kb-api/internal/repository"
	"github.com/prakoso-dev/kb-api/internal/service"
	"github.com/prakoso-dev/kb-api/pkg/cache"
	"github.com/prakoso-dev/kb-api/pkg/config"
	"github.com/prakoso-dev/kb-api/pkg/database"
	"github.com/prakoso-dev/kb-api/pkg/logger"
	corsmiddleware "github.com/prakoso-dev/kb-api/pkg/middleware/cors"
	reqidmiddleware "github.com/prakoso-dev/kb-api/pkg/middleware/requestid"
)

// @title Knowledge Base Workflow API
// @version 1.0.0
// @description Document lifecycle and knowledge-request resolution backend
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, document cache disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Documents.CacheTTL, logr, redisClient != nil)

	documentRepo := repository.NewDocumentRepository(db)
	requestRepo := repository.NewKnowledgeRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	documentSvc := service.NewDocumentService(documentRepo, cacheSvc, logr)
	requestSvc := service.NewKnowledgeRequestService(requestRepo, documentSvc, logr)
	exportSvc := service.NewExportService(documentSvc, cfg.Exports.MaxRows)
	authSvc := service.NewAuthService(userRepo, auditRepo, validator.New(), logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.StoreTimeout(cfg.Database.QueryTimeout))

	handler.Register(r, cfg, authSvc, handler.Registry{
		Auth:      handler.NewAuthHandler(authSvc),
		Documents: handler.NewDocumentHandler(documentSvc),
		Requests:  handler.NewKnowledgeRequestHandler(requestSvc),
		Audit:     handler.NewAuditHandler(auditRepo),
		Exports:   handler.NewExportHandler(exportSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
