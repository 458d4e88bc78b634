package data

import (
	"path/filepath"
	"sync"

	"github.com/ducminhle1904/moex-risk-engine/internal/logger"
)

// MemoryCache implements HistoryCache with in-memory storage
type MemoryCache struct {
	cache map[string]History
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: make(map[string]History)}
}

func clone(h History) History {
	out := make(History, len(h))
	for symbol, points := range h {
		out[symbol] = append([]PricePoint(nil), points...)
	}
	return out
}

// Get returns a copy of the cached history
func (c *MemoryCache) Get(key string) (History, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	h, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	return clone(h), true
}

// Set stores a copy of h
func (c *MemoryCache) Set(key string, h History) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache[key] = clone(h)
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache = make(map[string]History)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// CachedProvider wraps another HistoryProvider with a cache
type CachedProvider struct {
	provider HistoryProvider
	cache    HistoryCache
	logger   *logger.Logger
}

// NewCachedProvider creates a cached provider backed by a MemoryCache
func NewCachedProvider(provider HistoryProvider, log *logger.Logger) *CachedProvider {
	return &CachedProvider{provider: provider, cache: NewMemoryCache(), logger: logger.OrNop(log).With("data")}
}

// GetName returns the name of the underlying provider with cache indication
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadHistory serves from the cache, loading on a miss
func (p *CachedProvider) LoadHistory(source string) (History, error) {
	if h, ok := p.cache.Get(source); ok {
		return h, nil
	}
	h, err := p.provider.LoadHistory(source)
	if err != nil {
		p.logger.LogError("load_history", err)
		return nil, err
	}
	p.cache.Set(source, h)
	p.logger.Debug("loaded and cached %s (%d symbols)", filepath.Base(source), len(h))
	return h, nil
}

// ValidateHistory delegates to the underlying provider
func (p *CachedProvider) ValidateHistory(h History) error {
	return p.provider.ValidateHistory(h)
}

// CacheSize returns the number of cached entries
func (p *CachedProvider) CacheSize() int {
	return p.cache.Size()
}

// ClearCache clears all cached data
func (p *CachedProvider) ClearCache() {
	p.cache.Clear()
}
