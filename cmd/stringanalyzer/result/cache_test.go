package result

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
	"github.com/SanteonNL/stringanalyzer/util"
)

func newTestCache(cfg CacheConfig) *ResultCache {
	return NewResultCache(cfg, zerolog.Nop())
}

func TestResultCache_StoreAndGet(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: true, DefaultTTL: time.Minute})
	defer c.Stop()

	filters := types.FilterSet{IsPalindrome: util.BoolPtr(true)}
	page := types.Page{Skip: 0, Limit: 10}
	records := []types.StringRecord{{ID: "1", Value: "madam"}}

	c.Store(c.Generation(), filters, page, records, 3)

	got, ok := c.Get(filters, page)
	require.True(t, ok)
	assert.Equal(t, records, got.Records)
	assert.Equal(t, 3, got.Total)

	_, ok = c.Get(filters, types.Page{Skip: 10, Limit: 10})
	assert.False(t, ok)

	_, ok = c.Get(types.FilterSet{}, page)
	assert.False(t, ok)
}

func TestResultCache_Expired(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: true, DefaultTTL: -time.Second})
	defer c.Stop()

	c.Store(c.Generation(), types.FilterSet{}, types.Page{Limit: 10}, nil, 0)
	_, ok := c.Get(types.FilterSet{}, types.Page{Limit: 10})
	assert.False(t, ok)
}

func TestResultCache_Disabled(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: false, DefaultTTL: time.Minute})
	defer c.Stop()

	c.Store(c.Generation(), types.FilterSet{}, types.Page{Limit: 10}, nil, 0)
	_, ok := c.Get(types.FilterSet{}, types.Page{Limit: 10})
	assert.False(t, ok)
}

func TestResultCache_Purge(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: true, DefaultTTL: time.Minute})
	defer c.Stop()

	c.Store(c.Generation(), types.FilterSet{}, types.Page{Limit: 10}, nil, 0)
	c.Purge()
	_, ok := c.Get(types.FilterSet{}, types.Page{Limit: 10})
	assert.False(t, ok)
}

func TestResultCache_StoreAfterPurgeIsDropped(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: true, DefaultTTL: time.Minute})
	defer c.Stop()

	filters := types.FilterSet{IsPalindrome: util.BoolPtr(true)}
	page := types.Page{Limit: 10}

	// A listing read the store, then a write purged before it could cache.
	gen := c.Generation()
	c.Purge()
	assert.False(t, c.Store(gen, filters, page, nil, 0))
	_, ok := c.Get(filters, page)
	assert.False(t, ok)

	assert.True(t, c.Store(c.Generation(), filters, page, nil, 1))
	got, ok := c.Get(filters, page)
	require.True(t, ok)
	assert.Equal(t, 1, got.Total)
}

func TestResultCache_ConcurrentStoreAndPurge(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: true, DefaultTTL: time.Minute})
	defer c.Stop()

	page := types.Page{Limit: 10}
	var (
		wg    sync.WaitGroup
		stale int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			filters := types.FilterSet{WordCount: util.IntPtr(i)}
			gen := c.Generation()
			c.Purge()
			if c.Store(gen, filters, page, nil, i) {
				atomic.AddInt32(&stale, 1)
			}
			c.Store(c.Generation(), filters, page, nil, i)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&stale), "pages read before a purge must not be cached")
}

func TestResultCache_CleanupEnforcesMaxSize(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: true, DefaultTTL: time.Minute, MaxSize: 2})
	defer c.Stop()

	for skip := 0; skip < 3; skip++ {
		c.Store(c.Generation(), types.FilterSet{}, types.Page{Skip: skip, Limit: 1}, nil, 0)
		time.Sleep(time.Millisecond)
	}
	c.cleanup()

	_, ok := c.Get(types.FilterSet{}, types.Page{Skip: 0, Limit: 1})
	assert.False(t, ok, "oldest page should be evicted")
	_, ok = c.Get(types.FilterSet{}, types.Page{Skip: 2, Limit: 1})
	assert.True(t, ok)
}

func TestResultCache_StopTwice(t *testing.T) {
	c := newTestCache(CacheConfig{Enabled: true, DefaultTTL: time.Minute, CleanupInterval: time.Hour})
	c.Stop()
	assert.NotPanics(t, c.Stop)
}

func TestKey(t *testing.T) {
	a := Key(types.FilterSet{MinLength: util.IntPtr(3)}, types.Page{Limit: 10})
	b := Key(types.FilterSet{MinLength: util.IntPtr(3)}, types.Page{Limit: 10})
	c := Key(types.FilterSet{MaxLength: util.IntPtr(3)}, types.Page{Limit: 10})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
