package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
)

const defaultCachePrefix = "playtrack"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts leaderboard and roster reads. Every method is safe on a
// nil receiver and cache failures never reach callers.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	prefix     string

	// generation advances on every InvalidateAll; readThrough skips its write
	// when a load overlapped an invalidation.
	generation atomic.Uint64
}

// NewCacheService constructs a cache service. Keys are namespaced under prefix.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool, prefix string) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled, prefix: prefix}
}

// Key builds a namespaced cache key.
func (s *CacheService) Key(parts ...string) string {
	prefix := defaultCachePrefix
	if s != nil {
		prefix = s.prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads key into dest and reports whether it was a hit. Backend errors
// are logged and reported as a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Set stores value under key. A non-positive ttl uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateAll drops every key under the service prefix.
func (s *CacheService) InvalidateAll(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	s.generation.Add(1)
	pattern := s.Key("*")
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (s *CacheService) currentGeneration() uint64 {
	if s == nil {
		return 0
	}
	return s.generation.Load()
}

// readThrough serves key from cache when possible, otherwise calls load and
// caches its result. Load errors are returned unchanged and never cached. A
// result loaded while this process invalidated the cache is returned but not
// stored, so it cannot outlive the write that superseded it.
func readThrough[T any](ctx context.Context, cache *CacheService, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	gen := cache.currentGeneration()
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if cache.currentGeneration() != gen {
		return value, nil
	}
	cache.Set(ctx, key, value, ttl)
	return value, nil
}
