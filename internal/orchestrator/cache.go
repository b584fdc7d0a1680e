// Package orchestrator turns the dashboard's rapidly-changing filter state
// into a bounded, non-redundant stream of backend requests.  It owns the
// result cache, the in-flight bookkeeping, request cancellation, debouncing,
// and the preview/final coordination that drives the rendering layer.
package orchestrator

import (
	"sync"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
)

// Payload is an opaque response body cached and propagated by the
// orchestrator; its concrete shape belongs to the channel's collaborator.
type Payload = interface{}

// ResultCache maps normalized keys to previously retrieved payloads, one
// namespace per channel.  Entries are immutable once written and survive for
// the session; there is no background invalidation.  Growth is unbounded by
// default (a fresh session means a fresh cache) — an optional per-channel cap
// evicts oldest-first when set.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[filter.Channel]map[string]Payload
	order      map[filter.Channel][]string
	maxEntries int
}

// NewResultCache constructs a ResultCache.  maxEntries caps each channel's
// namespace; zero means unbounded.
func NewResultCache(maxEntries int) *ResultCache {
	return &ResultCache{
		entries:    make(map[filter.Channel]map[string]Payload),
		order:      make(map[filter.Channel][]string),
		maxEntries: maxEntries,
	}
}

// Get returns the payload stored under (channel, key).  A pure lookup with no
// side effects.
func (c *ResultCache) Get(channel filter.Channel, key string) (Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns, ok := c.entries[channel]
	if !ok {
		return nil, false
	}
	p, ok := ns[key]
	return p, ok
}

// Put stores payload under (channel, key), silently overwriting an existing
// entry with the same key.
func (c *ResultCache) Put(channel filter.Channel, key string, payload Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.entries[channel]
	if !ok {
		ns = make(map[string]Payload)
		c.entries[channel] = ns
	}
	if _, exists := ns[key]; !exists {
		c.order[channel] = append(c.order[channel], key)
		if c.maxEntries > 0 && len(ns) >= c.maxEntries {
			oldest := c.order[channel][0]
			c.order[channel] = c.order[channel][1:]
			delete(ns, oldest)
		}
	}
	ns[key] = payload
}

// Len returns the number of entries in a channel's namespace.
func (c *ResultCache) Len(channel filter.Channel) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[channel])
}
