package geocode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type CacheEntry struct {
	Query     string    `json:"query"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Found     bool      `json:"found"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache is a JSON-file backed lookup table keyed by normalised address.
// A nil *Cache is valid and never hits.
type Cache struct {
	mu      sync.RWMutex
	Entries map[string]CacheEntry `json:"entries"`
}

func LoadCache(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return &Cache{Entries: map[string]CacheEntry{}}, nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Cache{Entries: map[string]CacheEntry{}}, nil
		}
		return nil, fmt.Errorf("geocode cache: %w", err)
	}
	var cache Cache
	if err := json.Unmarshal(payload, &cache); err != nil {
		return nil, fmt.Errorf("geocode cache %s: %w", path, err)
	}
	if cache.Entries == nil {
		cache.Entries = map[string]CacheEntry{}
	}
	return &cache, nil
}

func SaveCache(path string, cache *Cache) error {
	if cache == nil || strings.TrimSpace(path) == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	cache.mu.RLock()
	payload, err := json.MarshalIndent(cache, "", "  ")
	cache.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

func (c *Cache) Get(query string) (CacheEntry, bool) {
	if c == nil {
		return CacheEntry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.Entries[normalizeQuery(query)]
	return entry, ok
}

func (c *Cache) Set(query string, entry CacheEntry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Entries == nil {
		c.Entries = map[string]CacheEntry{}
	}
	entry.Query = query
	c.Entries[normalizeQuery(query)] = entry
}

// Len is the number of cached addresses.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Entries)
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
