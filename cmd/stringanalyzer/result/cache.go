package result

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
)

type ResultCache struct {
	entries  sync.Map // map[string]*ResultSet
	mu       sync.Mutex
	gen      uint64 // bumped by Purge, guarded by mu
	config   CacheConfig
	log      zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// ResultSet holds one cached listing page
type ResultSet struct {
	Records   []types.StringRecord // The page of records
	Total     int                  // Total number of matches across all pages
	Key       string               // Cache key the page is stored under
	CreatedAt time.Time            // When this cache entry was created
	ExpiresAt time.Time            // When this cache entry expires
}

type CacheConfig struct {
	// Enabled determines if caching is active
	// When false, the service will bypass the cache completely
	Enabled bool

	// DefaultTTL is the default time-to-live for cached pages
	DefaultTTL time.Duration

	// MaxSize is the maximum number of pages to keep in cache
	// When exceeded, oldest entries will be removed first
	// Set to 0 for unlimited size
	MaxSize int

	// CleanupInterval defines how often the cleanup routine runs
	// to remove expired entries and enforce MaxSize
	CleanupInterval time.Duration
}

// DefaultCacheConfig returns the cache settings used when the environment
// does not override them.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:         true,
		DefaultTTL:      5 * time.Minute,
		MaxSize:         1000,
		CleanupInterval: time.Minute,
	}
}

// NewResultCache creates and initializes a new listing cache
func NewResultCache(config CacheConfig, log zerolog.Logger) *ResultCache {
	cache := &ResultCache{
		config:   config,
		log:      log.With().Str("component", "result_cache").Logger(),
		stopChan: make(chan struct{}),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go cache.startCleanupRoutine()
		cache.log.Info().
			Dur("interval", config.CleanupInterval).
			Int("max_size", config.MaxSize).
			Dur("ttl", config.DefaultTTL).
			Msg("Started cache cleanup routine")
	}

	return cache
}

func (c *ResultCache) startCleanupRoutine() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			c.log.Info().Msg("Stopping cache cleanup routine")
			return
		}
	}
}

func (c *ResultCache) cleanup() {
	var (
		totalEntries   int
		expiredEntries int
		removedEntries int
		now            = time.Now()
		entries        = make([]*ResultSet, 0)
	)

	// First pass: remove expired entries
	c.entries.Range(func(key, value interface{}) bool {
		totalEntries++
		resultSet := value.(*ResultSet)

		if now.After(resultSet.ExpiresAt) {
			c.entries.Delete(key)
			expiredEntries++
		} else {
			entries = append(entries, resultSet)
		}
		return true
	})

	// Second pass: enforce size limit, oldest first
	if c.config.MaxSize > 0 && len(entries) > c.config.MaxSize {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		})

		for _, oldEntry := range entries[:len(entries)-c.config.MaxSize] {
			c.entries.Delete(oldEntry.Key)
			removedEntries++
		}
	}

	c.log.Debug().
		Int("total_entries", totalEntries).
		Int("expired_removed", expiredEntries).
		Int("size_limit_removed", removedEntries).
		Int("remaining_entries", len(entries)-removedEntries).
		Msg("Completed cache cleanup")
}

// Key derives the cache key of a listing page.
func Key(filters types.FilterSet, page types.Page) string {
	raw, _ := json.Marshal(filters)
	hasher := sha256.New()
	hasher.Write(raw)
	hasher.Write([]byte(fmt.Sprintf("|%d|%d", page.Skip, page.Limit)))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Generation identifies the current cache contents. Capture it before
// reading the store and pass it to Store.
func (c *ResultCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Store caches a page read at generation gen. The page is dropped when a
// Purge happened since, and Store reports whether it was kept.
func (c *ResultCache) Store(gen uint64, filters types.FilterSet, page types.Page, records []types.StringRecord, total int) bool {
	if !c.config.Enabled {
		return false
	}

	now := time.Now()
	cacheKey := Key(filters, page)
	resultSet := &ResultSet{
		Records:   records,
		Total:     total,
		Key:       cacheKey,
		CreatedAt: now,
		ExpiresAt: now.Add(c.config.DefaultTTL),
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug().
			Str("key", cacheKey).
			Uint64("generation", gen).
			Msg("Skipped caching page read before a write")
		return false
	}
	c.entries.Store(cacheKey, resultSet)
	c.mu.Unlock()

	c.log.Debug().
		Str("key", cacheKey).
		Int("records", len(records)).
		Time("expires", resultSet.ExpiresAt).
		Msg("Stored result page in cache")
	return true
}

func (c *ResultCache) Get(filters types.FilterSet, page types.Page) (*ResultSet, bool) {
	if !c.config.Enabled {
		return nil, false
	}

	cacheKey := Key(filters, page)
	entry, ok := c.entries.Load(cacheKey)
	if !ok {
		return nil, false
	}

	resultSet := entry.(*ResultSet)
	if time.Now().After(resultSet.ExpiresAt) {
		c.entries.Delete(cacheKey)
		return nil, false
	}

	c.log.Debug().
		Str("key", cacheKey).
		Int("returned_records", len(resultSet.Records)).
		Msg("Retrieved page from cache")

	return resultSet, true
}

// Purge drops every cached page and starts a new generation. Writes to the
// store call this after they commit.
func (c *ResultCache) Purge() {
	c.mu.Lock()
	c.gen++
	removed := 0
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		removed++
		return true
	})
	c.mu.Unlock()

	if removed > 0 {
		c.log.Debug().Int("removed", removed).Msg("Purged result cache")
	}
}

// Stop gracefully shuts down the cache
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() {
		if c.config.Enabled && c.config.CleanupInterval > 0 {
			close(c.stopChan)
		}
		c.Purge()
		c.log.Info().Msg("Cache cleared and stopped")
	})
}
