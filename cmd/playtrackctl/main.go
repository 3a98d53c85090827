package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/playtrack-api/internal/repository"
	"github.com/noah-isme/playtrack-api/internal/service"
	"github.com/noah-isme/playtrack-api/pkg/cache"
	"github.com/noah-isme/playtrack-api/pkg/config"
	"github.com/noah-isme/playtrack-api/pkg/database"
	"github.com/noah-isme/playtrack-api/pkg/logger"
)

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds the store-backed services shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *sqlx.DB
	redis    *redis.Client
	repo     *repository.StudentRepository
	students *service.StudentService
	exports  *service.ExportService
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Writes from the CLI must drop the API's cached roster and leaderboard.
	var redisClient *redis.Client
	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logr.Warn("redis unavailable, cached reads will expire by TTL", zap.Error(err))
			redisClient = nil
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	a := newApp(cfg, logr, db, cacheRepo)
	a.redis = redisClient
	return a, nil
}

func newApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, cacheRepo service.CacheRepository) *app {
	repo := repository.NewStudentRepository(db)
	cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Cache.TTL, logr, cfg.Cache.Enabled && cacheRepo != nil, cfg.Cache.Prefix)
	students := service.NewStudentService(repo, cacheSvc, nil, logr, service.StudentServiceConfig{
		DefaultClass:    cfg.Students.DefaultClass,
		LeaderboardSize: cfg.Leaderboard.Size,
		StoreTimeout:    cfg.Database.Timeout,
		CacheTTL:        cfg.Cache.TTL,
	})
	return &app{
		cfg:      cfg,
		logger:   logr,
		db:       db,
		repo:     repo,
		students: students,
		exports:  service.NewExportService(students, logr),
	}
}

func (a *app) close() error {
	_ = a.logger.Sync()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.db.Close()
}
