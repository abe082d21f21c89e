package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheService orchestrates cache operations and related metrics. Without a
// remote repository it keeps entries in process memory.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger

	mu    sync.RWMutex
	local map[string]localEntry
	now   func() time.Time
}

type localEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewCacheService constructs a cache service. repo may be nil.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:       repo,
		metrics:    metrics,
		defaultTTL: defaultTTL,
		logger:     logger,
		local:      make(map[string]localEntry),
		now:        time.Now,
	}
}

// Remote reports whether a shared cache backend is configured.
func (s *CacheService) Remote() bool {
	return s != nil && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	start := time.Now()
	var err error
	if s.Remote() {
		err = s.repo.Get(ctx, key, dest)
	} else {
		err = s.getLocal(key, dest)
	}
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	var err error
	if s.Remote() {
		err = s.repo.Set(ctx, key, value, ttl)
	} else {
		err = s.setLocal(key, value, ttl)
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes a cached key.
func (s *CacheService) Invalidate(ctx context.Context, key string) error {
	if !s.Remote() {
		s.mu.Lock()
		delete(s.local, key)
		s.mu.Unlock()
		return nil
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *CacheService) getLocal(key string, dest interface{}) error {
	s.mu.RLock()
	entry, ok := s.local[key]
	s.mu.RUnlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.local, key)
		s.mu.Unlock()
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(entry.payload, dest)
}

func (s *CacheService) setLocal(key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.local[key] = localEntry{payload: payload, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}
