package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairtrip-workers/internal/common/logger"
	"fairtrip-workers/internal/models"
)

// ==========================
// Cached Source Tests
// ==========================

// countingSource records how many times the backing store was hit.
type countingSource struct {
	activities []models.Activity
	calls      int
}

func (s *countingSource) Name() string { return "stub" }

func (s *countingSource) AllActivities(ctx context.Context) ([]models.Activity, error) {
	s.calls++
	return s.activities, nil
}

func (s *countingSource) ActivitiesByCity(ctx context.Context, city string) ([]models.Activity, error) {
	s.calls++
	var out []models.Activity
	for _, a := range s.activities {
		if a.City == city {
			out = append(out, a)
		}
	}
	return out, nil
}

func sampleActivities() []models.Activity {
	return []models.Activity{
		{BusinessID: "b1", City: "Tampa", Name: "Night Owl Bar", Stars: 4.5, ReviewCount: 120, PriceLevel: 2,
			Tags: map[string]float64{"nightlife": 0.9}},
		{BusinessID: "b2", City: "Boise", Name: "Old Town Market", Stars: 3.5, ReviewCount: 60, PriceLevel: 1,
			Tags: map[string]float64{"shopping": 0.8}},
	}
}

func newMiniredisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCachedSource_SecondReadServedFromCache(t *testing.T) {
	client := newMiniredisClient(t)
	inner := &countingSource{activities: sampleActivities()}
	cached := NewCachedSource(inner, client, time.Minute, logger.NewNoOpLogger())

	first, err := cached.ActivitiesByCity(context.Background(), "Tampa")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, inner.calls)

	second, err := cached.ActivitiesByCity(context.Background(), "Tampa")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls, "second read must not hit the source")
}

func TestCachedSource_DistinctKeysPerCity(t *testing.T) {
	client := newMiniredisClient(t)
	inner := &countingSource{activities: sampleActivities()}
	cached := NewCachedSource(inner, client, time.Minute, logger.NewNoOpLogger())

	tampa, err := cached.ActivitiesByCity(context.Background(), "Tampa")
	require.NoError(t, err)
	boise, err := cached.ActivitiesByCity(context.Background(), "Boise")
	require.NoError(t, err)

	assert.Equal(t, "b1", tampa[0].BusinessID)
	assert.Equal(t, "b2", boise[0].BusinessID)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_CorruptEntryReloads(t *testing.T) {
	client := newMiniredisClient(t)
	require.NoError(t, client.Set(context.Background(), "catalog:city:tampa", "{not json", time.Minute).Err())

	inner := &countingSource{activities: sampleActivities()}
	cached := NewCachedSource(inner, client, time.Minute, logger.NewNoOpLogger())

	activities, err := cached.ActivitiesByCity(context.Background(), "Tampa")
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSource_RedisFailureFallsThrough(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("catalog:all").SetErr(assert.AnError)
	mock.Regexp().ExpectSet("catalog:all", `.+`, time.Minute).SetVal("OK")

	inner := &countingSource{activities: sampleActivities()}
	cached := NewCachedSource(inner, client, time.Minute, logger.NewNoOpLogger())

	activities, err := cached.AllActivities(context.Background())
	require.NoError(t, err)
	assert.Len(t, activities, 2)
	assert.Equal(t, 1, inner.calls)
}
