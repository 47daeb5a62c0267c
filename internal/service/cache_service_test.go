package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("redis down")
}

func (brokenCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("redis down")
}

func (brokenCache) Incr(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("redis down")
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemCache(), metrics, time.Minute, nil, true)

	var out []string
	assert.False(t, svc.Get(context.Background(), "k", &out))
	svc.Set(context.Background(), "k", []string{"a"}, 0)
	assert.True(t, svc.Get(context.Background(), "k", &out))
	assert.Equal(t, []string{"a"}, out)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
}

func TestCacheServiceGenerations(t *testing.T) {
	svc := NewCacheService(newMemCache(), nil, time.Minute, nil, true)
	ctx := context.Background()

	gen, ok := svc.Generation(ctx, "gen")
	require.True(t, ok)
	assert.Zero(t, gen)

	svc.Bump(ctx, "gen", "other")
	svc.Bump(ctx, "gen")
	gen, ok = svc.Generation(ctx, "gen")
	require.True(t, ok)
	assert.Equal(t, int64(2), gen)
	gen, _ = svc.Generation(ctx, "other")
	assert.Equal(t, int64(1), gen)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemCache()
	svc := NewCacheService(repo, nil, 0, nil, false)
	svc.Set(context.Background(), "k", 1, 0)
	assert.False(t, repo.has("k"))

	var nilSvc *CacheService
	var out int
	assert.False(t, nilSvc.Get(context.Background(), "k", &out))
	assert.NotPanics(t, func() { nilSvc.Bump(context.Background(), "k") })
	_, ok := nilSvc.Generation(context.Background(), "k")
	assert.False(t, ok)
}

func TestCacheServiceToleratesBackendFailure(t *testing.T) {
	svc := NewCacheService(brokenCache{}, nil, time.Minute, nil, true)
	var out int
	assert.False(t, svc.Get(context.Background(), "k", &out))
	assert.NotPanics(t, func() {
		svc.Set(context.Background(), "k", 1, 0)
		svc.Bump(context.Background(), "k")
	})
	_, ok := svc.Generation(context.Background(), "k")
	assert.False(t, ok, "unreadable generation bypasses the cache")
}

func TestMetricsCountBookings(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveBooking(BookingOutcomeBooked, 3*time.Millisecond)
	metrics.ObserveBooking(BookingOutcomeConflict, time.Millisecond)
	metrics.ObserveBooking(BookingOutcomeConflict, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.bookings.WithLabelValues(BookingOutcomeBooked)))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.bookings.WithLabelValues(BookingOutcomeConflict)))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
