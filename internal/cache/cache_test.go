package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
)

var barsKey = marketdata.Key{Symbol: "600519", Kind: marketdata.KindDailyBars}

// fakeClock lets tests move cache time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(cfg Config) (*Cache, *fakeClock) {
	c := New(cfg)
	clock := newFakeClock()
	c.now = clock.Now
	return c, clock
}

func TestGetOrLoad_CachesWithinTTL(t *testing.T) {
	c, clock := newTestCache(Config{})
	var loads atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		loads.Add(1)
		return "payload", nil
	}

	v, stale, err := c.GetOrLoad(context.Background(), barsKey, 5*time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
	assert.False(t, stale)

	// Two minutes later the value is still fresh: no new load.
	clock.Advance(2 * time.Minute)
	v, _, err = c.GetOrLoad(context.Background(), barsKey, 5*time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)
	assert.Equal(t, int64(1), loads.Load())
}

func TestGetOrLoad_RefetchesAfterTTL(t *testing.T) {
	c, clock := newTestCache(Config{})
	var loads atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		loads.Add(1)
		return loads.Load(), nil
	}

	_, _, err := c.GetOrLoad(context.Background(), barsKey, 5*time.Minute, loader)
	require.NoError(t, err)

	// Past the TTL the entry must not be served.
	clock.Advance(6 * time.Minute)
	v, stale, err := c.GetOrLoad(context.Background(), barsKey, 5*time.Minute, loader)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, int64(2), loads.Load())
}

func TestGet_StrictExpiry(t *testing.T) {
	c, clock := newTestCache(Config{ServeStaleOnFailure: true})

	_, _, err := c.GetOrLoad(context.Background(), barsKey, time.Minute, func(ctx context.Context) (any, error) {
		return "v1", nil
	})
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	// Even with stale serving configured, Get never returns expired data.
	_, ok := c.Get(barsKey)
	assert.False(t, ok)
}

func TestGetOrLoad_SingleFlight(t *testing.T) {
	c, _ := newTestCache(Config{})

	var loads atomic.Int64
	gate := make(chan struct{})
	loader := func(ctx context.Context) (any, error) {
		loads.Add(1)
		<-gate
		return "shared", nil
	}

	const callers = 16
	results := make(chan any, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad(context.Background(), barsKey, time.Minute, loader)
			assert.NoError(t, err)
			results <- v
		}()
	}

	// Let every caller pile up behind the in-flight load, then release it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(results)

	assert.Equal(t, int64(1), loads.Load(), "concurrent callers must coalesce into one load")
	for v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestGetOrLoad_FailureNotCached(t *testing.T) {
	c, _ := newTestCache(Config{})

	var loads atomic.Int64
	wantErr := errors.New("all providers failed")
	loader := func(ctx context.Context) (any, error) {
		loads.Add(1)
		return nil, wantErr
	}

	_, _, err := c.GetOrLoad(context.Background(), barsKey, time.Minute, loader)
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, c.Len(), "failures must never be stored")

	// The next call loads again instead of serving a cached failure.
	_, _, err = c.GetOrLoad(context.Background(), barsKey, time.Minute, loader)
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, int64(2), loads.Load())
}

func TestGetOrLoad_FailurePropagatesToAllWaiters(t *testing.T) {
	c, _ := newTestCache(Config{})

	gate := make(chan struct{})
	wantErr := errors.New("upstream down")
	loader := func(ctx context.Context) (any, error) {
		<-gate
		return nil, wantErr
	}

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.GetOrLoad(context.Background(), barsKey, time.Minute, loader)
			errs <- err
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, wantErr)
	}
}

func TestGetOrLoad_ServeStaleOnFailure(t *testing.T) {
	c, clock := newTestCache(Config{ServeStaleOnFailure: true})

	_, _, err := c.GetOrLoad(context.Background(), barsKey, time.Minute, func(ctx context.Context) (any, error) {
		return "last-known-good", nil
	})
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	v, stale, err := c.GetOrLoad(context.Background(), barsKey, time.Minute, func(ctx context.Context) (any, error) {
		return nil, errors.New("every provider failed")
	})

	require.NoError(t, err)
	assert.True(t, stale, "stale responses must be marked")
	assert.Equal(t, "last-known-good", v)
}

func TestGetOrLoad_StaleDisabledByDefault(t *testing.T) {
	c, clock := newTestCache(Config{})

	_, _, err := c.GetOrLoad(context.Background(), barsKey, time.Minute, func(ctx context.Context) (any, error) {
		return "old", nil
	})
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	wantErr := errors.New("every provider failed")
	_, _, err = c.GetOrLoad(context.Background(), barsKey, time.Minute, func(ctx context.Context) (any, error) {
		return nil, wantErr
	})

	require.ErrorIs(t, err, wantErr, "strict TTL: no silent stale substitution")
}

func TestPrune(t *testing.T) {
	c, clock := newTestCache(Config{})

	keys := []marketdata.Key{
		{Symbol: "600519", Kind: marketdata.KindDailyBars},
		{Symbol: "000001", Kind: marketdata.KindDailyBars},
	}
	for _, k := range keys {
		_, _, err := c.GetOrLoad(context.Background(), k, time.Minute, func(ctx context.Context) (any, error) {
			return "v", nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 2, c.Len())

	// Nothing is old enough yet.
	clock.Advance(2 * time.Minute)
	assert.Equal(t, 0, c.Prune(5*time.Minute))

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 2, c.Prune(5*time.Minute))
	assert.Equal(t, 0, c.Len())
}

func TestGetOrLoad_DistinctKeysDoNotCoalesce(t *testing.T) {
	c, _ := newTestCache(Config{})

	var loads atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		loads.Add(1)
		return "v", nil
	}

	k1 := marketdata.Key{Symbol: "600519", Kind: marketdata.KindDailyBars}
	k2 := marketdata.Key{Symbol: "600519", Kind: marketdata.KindWeeklyBars}

	_, _, err := c.GetOrLoad(context.Background(), k1, time.Minute, loader)
	require.NoError(t, err)
	_, _, err = c.GetOrLoad(context.Background(), k2, time.Minute, loader)
	require.NoError(t, err)

	assert.Equal(t, int64(2), loads.Load())
	assert.Equal(t, 2, c.Len())
}
