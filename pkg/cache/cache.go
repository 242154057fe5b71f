package cache

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Entry is a cached response snapshot. Header and Body are owned by the
// cache once stored; callers receive defensive copies from Get.
type Entry struct {
	// Status is the upstream status code at insertion time.
	Status int

	// Header holds the upstream response headers, minus hop-by-hop ones
	// the forwarder already strips.
	Header http.Header

	// Body is the full response body.
	Body []byte

	// ExpiresAt is when the entry stops being served.
	ExpiresAt time.Time

	// StoredAt records insertion time.
	StoredAt time.Time

	// LastAccessedAt drives LRU eviction.
	LastAccessedAt time.Time

	// AccessCount counts hits since insertion.
	AccessCount int64
}

// ResponseCache is a thread-safe TTL cache for proxied GET responses with
// LRU eviction. Entries expire after the configured TTL; expired entries
// are treated as misses and removed lazily on access, plus a periodic
// background sweep.
type ResponseCache struct {
	// entries maps cache keys to response snapshots
	entries map[string]*Entry

	// ttl is the time-to-live for cache entries (0 = no expiry)
	ttl time.Duration

	// maxEntries is the maximum number of entries (0 = unlimited)
	maxEntries int

	// maxBodyBytes is the largest body eligible for insertion (0 = unlimited)
	maxBodyBytes int64

	// mu protects concurrent access to the cache
	mu sync.RWMutex

	// stopCh signals the cleanup goroutine to stop
	stopCh chan struct{}

	// cleanupInterval is how often to run expiry cleanup
	cleanupInterval time.Duration

	// now is the clock source, overridable in tests
	now func() time.Time
}

// Key builds the cache key for a request: uppercase method plus the
// normalized target URL. Only GETs are cacheable today, but the method is
// part of the key so that can change without a format migration.
func Key(method, targetURL string) string {
	return strings.ToUpper(method) + " " + targetURL
}

// Cacheable reports whether a response is eligible for insertion:
// GET requests with a 2xx status only.
func Cacheable(method string, status int) bool {
	return strings.EqualFold(method, http.MethodGet) && status >= 200 && status < 300
}

// New creates a response cache with the specified TTL, entry limit, and
// body size limit. If ttl is 0, entries never expire. If maxEntries is 0,
// the cache has unlimited size. The background sweep runs at ttl/2,
// clamped to a 10-second floor.
func New(ttl time.Duration, maxEntries int, maxBodyBytes int64) *ResponseCache {
	cleanupInterval := time.Minute
	if ttl > 0 {
		cleanupInterval = ttl / 2
		if cleanupInterval < 10*time.Second {
			cleanupInterval = 10 * time.Second
		}
	}

	c := &ResponseCache{
		entries:         make(map[string]*Entry),
		ttl:             ttl,
		maxEntries:      maxEntries,
		maxBodyBytes:    maxBodyBytes,
		stopCh:          make(chan struct{}),
		cleanupInterval: cleanupInterval,
		now:             time.Now,
	}

	if ttl > 0 {
		go c.cleanupExpired()
	}

	return c
}

// Get retrieves a cached response snapshot.
// Returns (entry, true) if found and not expired; the returned entry's
// Header and Body are copies safe for the caller to mutate.
// Returns (zero, false) on miss or expiry; expired entries are evicted.
func (c *ResponseCache) Get(key string) (Entry, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	if !ok {
		c.mu.RUnlock()
		return Entry{}, false
	}
	expired := c.ttl > 0 && now.After(entry.ExpiresAt)
	c.mu.RUnlock()

	if expired {
		// Lazy eviction; re-check under the write lock in case the
		// entry was replaced between locks.
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && now.After(cur.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return Entry{}, false
	}

	c.mu.Lock()
	entry, ok = c.entries[key]
	if !ok {
		c.mu.Unlock()
		return Entry{}, false
	}
	entry.LastAccessedAt = now
	entry.AccessCount++
	snapshot := Entry{
		Status:         entry.Status,
		Header:         entry.Header.Clone(),
		Body:           append([]byte(nil), entry.Body...),
		ExpiresAt:      entry.ExpiresAt,
		StoredAt:       entry.StoredAt,
		LastAccessedAt: entry.LastAccessedAt,
		AccessCount:    entry.AccessCount,
	}
	c.mu.Unlock()

	return snapshot, true
}

// Put stores a response snapshot with the configured TTL.
// Bodies larger than the configured limit are silently rejected.
// If the cache is full, the least recently used entry is evicted.
func (c *ResponseCache) Put(key string, status int, header http.Header, body []byte) {
	if c.maxBodyBytes > 0 && int64(len(body)) > c.maxBodyBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLRU()
		}
	}

	now := c.now()
	expiresAt := time.Time{} // Zero time = no expiry
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl)
	}

	c.entries[key] = &Entry{
		Status:         status,
		Header:         header.Clone(),
		Body:           append([]byte(nil), body...),
		ExpiresAt:      expiresAt,
		StoredAt:       now,
		LastAccessedAt: now,
	}
}

// Delete removes an entry from the cache.
func (c *ResponseCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Size returns the current number of entries in the cache.
func (c *ResponseCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
}

// Sweep removes all expired entries and returns how many were evicted.
// It is called by the background goroutine and by the maintenance
// scheduler; safe to call concurrently with Get/Put.
func (c *ResponseCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl == 0 {
		return 0
	}

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Close stops the background cleanup goroutine.
// After calling Close, the cache should not be used.
func (c *ResponseCache) Close() {
	close(c.stopCh)
}

// evictLRU evicts the least recently accessed entry.
// Must be called with the write lock held.
func (c *ResponseCache) evictLRU() {
	if len(c.entries) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.LastAccessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastAccessedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// cleanupExpired runs periodically to remove expired entries.
// Runs in a background goroutine until Close() is called.
func (c *ResponseCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stopCh:
			return
		}
	}
}
