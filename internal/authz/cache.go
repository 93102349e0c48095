// Portalgate - Multi-Tenant Portal Authorization Service
// Copyright 2026 Campus Works
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campusworks/portalgate

package authz

import (
	"sync"
	"time"
)

// routeKey identifies one route policy question. Role, path, and
// action fully determine the casbin answer, so the triple is the
// cache key. Engine decisions are never cached; they depend on
// resource state that changes between calls.
type routeKey struct {
	role   string
	object string
	action string
}

type routeEntry struct {
	allowed bool
	expires time.Time
}

// routeCache memoizes route policy decisions for a bounded TTL.
// Policy reloads call invalidate, so stale grants never outlive a
// reload by more than one lookup.
type routeCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[routeKey]routeEntry

	done     chan struct{}
	stopOnce sync.Once
}

func newRouteCache(ttl time.Duration) *routeCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &routeCache{
		ttl:     ttl,
		entries: make(map[routeKey]routeEntry),
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// lookup returns the cached decision and whether a live entry exists.
func (c *routeCache) lookup(role, object, action string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[routeKey{role, object, action}]
	if !ok || time.Now().After(entry.expires) {
		return false, false
	}
	return entry.allowed, true
}

// store records a decision until the TTL elapses.
func (c *routeCache) store(role, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[routeKey{role, object, action}] = routeEntry{
		allowed: allowed,
		expires: time.Now().Add(c.ttl),
	}
}

// invalidate drops every cached decision.
func (c *routeCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[routeKey]routeEntry)
}

// sweep reclaims expired entries so a long-lived process does not
// accumulate one entry per distinct request path forever.
func (c *routeCache) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expires) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop terminates the sweeper. Safe to call more than once.
func (c *routeCache) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
