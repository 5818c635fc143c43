package pricing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// CachePolicy defines cache behavior
type CachePolicy struct {
	// TTL for entries
	TTL time.Duration

	// MaxEntries bounds the cache; the least recently used entry is evicted
	MaxEntries int
}

// DefaultCachePolicy returns the default policy
func DefaultCachePolicy() CachePolicy {
	return CachePolicy{
		TTL:        15 * time.Minute,
		MaxEntries: 1024,
	}
}

// CacheEntry is one cached search result
type CacheEntry struct {
	Service      string
	Rows         []TierRow
	CreatedAt    time.Time
	ExpiresAt    time.Time
	AccessCount  int
	LastAccessed time.Time
}

// IsExpired checks if the entry has expired
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// CacheStats contains cache statistics
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	Hits           int
	Misses         int
}

// CachedStore is a read-through cache in front of a Store. Only successful
// searches are cached; an empty result is cached like any other.
type CachedStore struct {
	store      Store
	ttl        time.Duration
	serviceTTL map[string]time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*CacheEntry
	hits    int
	misses  int
}

// NewCachedStore wraps store with the given policy
func NewCachedStore(store Store, policy CachePolicy) *CachedStore {
	if policy.MaxEntries < 1 {
		policy.MaxEntries = DefaultCachePolicy().MaxEntries
	}
	return &CachedStore{
		store:      store,
		ttl:        policy.TTL,
		serviceTTL: make(map[string]time.Duration),
		maxEntries: policy.MaxEntries,
		now:        time.Now,
		entries:    make(map[string]*CacheEntry),
	}
}

// SetServiceTTL overrides the TTL for one service's entries. Service names
// match case-insensitively; a zero TTL stops that service being cached.
func (c *CachedStore) SetServiceTTL(service string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceTTL[strings.ToLower(service)] = ttl
}

// Search implements Store
func (c *CachedStore) Search(ctx context.Context, q Query) ([]TierRow, error) {
	key := cacheKey(q)

	c.mu.Lock()
	now := c.now()
	if entry, ok := c.entries[key]; ok {
		if !entry.IsExpired(now) {
			entry.AccessCount++
			entry.LastAccessed = now
			c.hits++
			rows := entry.Rows
			c.mu.Unlock()
			return rows, nil
		}
		delete(c.entries, key)
	}
	c.misses++
	c.mu.Unlock()

	rows, err := c.store.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	c.put(key, q.Service, rows)
	return rows, nil
}

func (c *CachedStore) put(key, service string, rows []TierRow) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.ttl
	if serviceTTL, ok := c.serviceTTL[strings.ToLower(service)]; ok {
		ttl = serviceTTL
	}
	if ttl <= 0 {
		return
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	now := c.now()
	c.entries[key] = &CacheEntry{
		Service:      service,
		Rows:         rows,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		LastAccessed: now,
	}
}

// evictLocked drops the least recently accessed entry
func (c *CachedStore) evictLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.LastAccessed.Before(oldest) {
			oldestKey, oldest = key, entry.LastAccessed
		}
	}
	delete(c.entries, oldestKey)
}

// Stats returns cache statistics
func (c *CachedStore) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits,
		Misses:       c.misses,
	}
	for _, entry := range c.entries {
		if entry.IsExpired(now) {
			stats.ExpiredEntries++
		}
	}
	return stats
}

// cacheKey hashes the query; filter order does not matter
func cacheKey(q Query) string {
	h := sha256.New()
	h.Write([]byte(q.Service))
	h.Write([]byte{0})
	for _, p := range q.Partitions {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})

	names := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(q.Filters[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
