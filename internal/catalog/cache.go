// internal/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

// CachedSource wraps a Source with a Redis snapshot cache. Cache failures
// are logged and treated as misses so the catalog stays available.
type CachedSource struct {
	inner  Source
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(inner Source, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

func (s *CachedSource) Name() string {
	return s.inner.Name() + "+redis"
}

func (s *CachedSource) AllActivities(ctx context.Context) ([]models.Activity, error) {
	return s.load(ctx, "catalog:all", func(ctx context.Context) ([]models.Activity, error) {
		return s.inner.AllActivities(ctx)
	})
}

func (s *CachedSource) ActivitiesByCity(ctx context.Context, city string) ([]models.Activity, error) {
	key := "catalog:city:" + strings.ToLower(city)
	return s.load(ctx, key, func(ctx context.Context) ([]models.Activity, error) {
		return s.inner.ActivitiesByCity(ctx, city)
	})
}

func (s *CachedSource) load(ctx context.Context, key string, fetch func(context.Context) ([]models.Activity, error)) ([]models.Activity, error) {
	cached, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var activities []models.Activity
		if unmarshalErr := json.Unmarshal([]byte(cached), &activities); unmarshalErr == nil {
			return activities, nil
		}
		// Corrupt entry: drop it and reload from the source.
		_ = s.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		s.logger.Warn("cache read failed, falling back to source", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	activities, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(activities); marshalErr == nil {
		if setErr := s.client.Set(ctx, key, payload, s.ttl).Err(); setErr != nil {
			s.logger.Warn("cache write failed", map[string]interface{}{
				"key":   key,
				"error": setErr.Error(),
			})
		}
	}

	return activities, nil
}
