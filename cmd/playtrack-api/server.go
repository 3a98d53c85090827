package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/playtrack-api/api/swagger"
	"github.com/noah-isme/playtrack-api/internal/handler"
	"github.com/noah-isme/playtrack-api/internal/middleware"
	"github.com/noah-isme/playtrack-api/internal/repository"
	"github.com/noah-isme/playtrack-api/internal/service"
	"github.com/noah-isme/playtrack-api/pkg/config"
	"github.com/noah-isme/playtrack-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/playtrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/playtrack-api/pkg/middleware/requestid"
	"github.com/noah-isme/playtrack-api/pkg/validation"
)

// newRouter wires repositories, services and handlers onto a gin engine.
// redisClient may be nil, in which case reads are served from the store only.
func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) (*gin.Engine, error) {
	metrics := service.NewMetricsService()
	validate := validation.New()

	policy, err := service.NewBadgePolicy(cfg.Badges)
	if err != nil {
		return nil, fmt.Errorf("badge policy: %w", err)
	}

	students := repository.NewStudentRepository(db).WithQueryObserver(metrics)
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil, cfg.Cache.Prefix)

	studentSvc := service.NewStudentService(students, cache, validate, logr, service.StudentServiceConfig{
		DefaultClass:    cfg.Students.DefaultClass,
		LeaderboardSize: cfg.Leaderboard.Size,
		StoreTimeout:    cfg.Database.Timeout,
		CacheTTL:        cfg.Cache.TTL,
	})
	sessionSvc := service.NewSessionService(students, policy, cache, metrics, validate, logr, cfg.Database.Timeout)
	exportSvc := service.NewExportService(studentSvc, logr)

	studentHandler := handler.NewStudentHandler(studentSvc)
	adminHandler := handler.NewAdminHandler(studentSvc, exportSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	leaderboardHandler := handler.NewLeaderboardHandler(studentSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, students, cfg.Database.Timeout)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Delete)

		api.POST("/sessions", sessionHandler.Create)

		api.GET("/leaderboard", leaderboardHandler.Top)
		api.GET("/games", leaderboardHandler.Games)

		admin := api.Group("/admin")
		admin.POST("/students", adminHandler.Create)
		admin.GET("/students", adminHandler.List)
		admin.GET("/students/export", adminHandler.Export)
	}

	return r, nil
}
