package session

import (
	"sync"

	"github.com/yaplingo/echo/internal/api"
)

// ResultCache holds scored results by transcript id for the session lifetime.
//
// It implements the poller's eviction contract: when the backend reports a
// result absent, the cached view is dropped so a later query for the same
// handle cannot serve stale data.
type ResultCache struct {
	mu      sync.Mutex
	results map[string]*api.Result
}

func NewResultCache() *ResultCache {
	return &ResultCache{results: make(map[string]*api.Result)}
}

// Put stores the scored result for a transcript, replacing any earlier one.
func (c *ResultCache) Put(transcriptID string, result *api.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[transcriptID] = result
}

// Get returns the cached result for a transcript, if any.
func (c *ResultCache) Get(transcriptID string) (*api.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.results[transcriptID]
	return result, ok
}

// Evict drops the cached view of a transcript's result.
func (c *ResultCache) Evict(transcriptID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, transcriptID)
}
