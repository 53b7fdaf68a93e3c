package network

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a response without freshness headers stays cached.
const DefaultTTL = 5 * time.Minute

// CacheEntry is a cached response and its freshness data.
type CacheEntry struct {
	Response  *Response
	ETag      string
	LastMod   string
	MaxAge    time.Duration
	HasMaxAge bool
	Expires   time.Time
	CachedAt  time.Time
}

// IsExpired reports whether the entry is stale. An explicit max-age, including
// zero, wins over Expires.
func (e *CacheEntry) IsExpired() bool {
	if e.HasMaxAge {
		return time.Since(e.CachedAt) > e.MaxAge
	}
	if !e.Expires.IsZero() {
		return time.Now().After(e.Expires)
	}
	return time.Since(e.CachedAt) > DefaultTTL
}

// Cache holds successful GET responses keyed by URL.
type Cache struct {
	entries map[string]*CacheEntry
	maxSize int
	mu      sync.RWMutex
}

// NewCache creates a cache of at most maxSize entries; <= 0 means 1000.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Cache{entries: make(map[string]*CacheEntry), maxSize: maxSize}
}

// Get returns the entry for url, stale or not.
func (c *Cache) Get(url string) (*CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	return e, ok
}

// Fresh returns the response for url if an unexpired entry exists.
func (c *Cache) Fresh(url string) (*Response, bool) {
	e, ok := c.Get(url)
	if !ok || e.IsExpired() {
		return nil, false
	}
	return e.Response, true
}

// Set stores resp unless its headers forbid it. The oldest entry is evicted
// when the cache is full.
func (c *Cache) Set(url string, resp *Response) {
	headers := resp.Headers
	if headers == nil {
		headers = http.Header{}
	}
	directives := parseCacheControl(headers.Get("Cache-Control"))
	if _, ok := directives["no-store"]; ok {
		return
	}
	entry := &CacheEntry{
		Response: resp,
		ETag:     headers.Get("ETag"),
		LastMod:  headers.Get("Last-Modified"),
		CachedAt: time.Now(),
	}
	if v, ok := directives["max-age"]; ok {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			entry.MaxAge = time.Duration(secs) * time.Second
			entry.HasMaxAge = true
		}
	}
	if !entry.HasMaxAge {
		if exp := headers.Get("Expires"); exp != "" {
			if t, err := http.ParseTime(exp); err == nil {
				entry.Expires = t
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[url]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[url] = entry
}

// Delete removes url from the cache.
func (c *Cache) Delete(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CacheEntry)
}

// Size returns the number of entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup drops expired entries.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for url, e := range c.entries {
		if e.IsExpired() {
			delete(c.entries, url)
		}
	}
}

// must hold c.mu
func (c *Cache) evictOldest() {
	var oldestURL string
	var oldest time.Time
	for url, e := range c.entries {
		if oldestURL == "" || e.CachedAt.Before(oldest) {
			oldestURL, oldest = url, e.CachedAt
		}
	}
	if oldestURL != "" {
		delete(c.entries, oldestURL)
	}
}

// parseCacheControl maps lowercase directive names to their values.
func parseCacheControl(value string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, _ := strings.Cut(part, "=")
		out[strings.ToLower(strings.TrimSpace(name))] = strings.Trim(strings.TrimSpace(val), `"`)
	}
	return out
}
