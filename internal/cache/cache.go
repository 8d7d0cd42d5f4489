// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package cache holds rendered API responses keyed by request URI.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/cespare/xxhash/v2"
)

const DefaultTTL = 5 * time.Minute

// Entry is one cached response body.
type Entry struct {
	Body        []byte
	ContentType string
	ETag        string
}

// Observer is notified of every lookup.
type Observer interface {
	ObserveCache(hit bool, entries int)
}

// minResolution bounds how often a store's clock and sweeper tick.
const minResolution = 10 * time.Millisecond

// ResponseCache keeps one ttlcache store per lifetime. Reads never extend an entry.
type ResponseCache struct {
	mu         sync.RWMutex
	stores     map[time.Duration]*ttlcache.Cache[string, Entry]
	defaultTTL time.Duration
	observer   Observer
	now        func() time.Time
}

func New(defaultTTL time.Duration, observer Observer) *ResponseCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	return &ResponseCache{
		stores:     make(map[time.Duration]*ttlcache.Cache[string, Entry]),
		defaultTTL: defaultTTL,
		observer:   observer,
		now:        time.Now,
	}
}

func newStore(ttl time.Duration) *ttlcache.Cache[string, Entry] {
	resolution := max(ttl/10, minResolution)
	return ttlcache.New(ttlcache.Options[string, Entry]{}.
		SetDefaultTTL(ttl).
		SetTimerResolution(resolution).
		DisableUpdateTime(true))
}

// store returns the store for ttl, creating it on first use.
func (c *ResponseCache) store(ttl time.Duration) *ttlcache.Cache[string, Entry] {
	c.mu.RLock()
	s, ok := c.stores[ttl]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stores[ttl]; ok {
		return s
	}
	s = newStore(ttl)
	c.stores[ttl] = s
	return s
}

func (c *ResponseCache) snapshot() []*ttlcache.Cache[string, Entry] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ttlcache.Cache[string, Entry], 0, len(c.stores))
	for _, s := range c.stores {
		out = append(out, s)
	}
	return out
}

// Get returns a live entry. Entries past their deadline miss even before the sweeper removes them.
func (c *ResponseCache) Get(key string) (Entry, bool) {
	entry, ok := c.lookup(key)
	if c.observer != nil {
		c.observer.ObserveCache(ok, c.Len())
	}
	return entry, ok
}

func (c *ResponseCache) lookup(key string) (Entry, bool) {
	now := c.now()
	for _, s := range c.snapshot() {
		item, ok := s.GetItem(key)
		if !ok {
			continue
		}
		if deadline := item.GetTime(); !deadline.IsZero() && !now.Before(deadline) {
			s.Delete(key)
			continue
		}
		return item.GetValue(), true
	}
	return Entry{}, false
}

// Set stores body under key for ttl and returns the stored entry. A zero ttl uses the
// cache default.
func (c *ResponseCache) Set(key string, body []byte, contentType string, ttl time.Duration) Entry {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	entry := Entry{
		Body:        append([]byte(nil), body...),
		ContentType: contentType,
		ETag:        ETag(body),
	}

	target := c.store(ttl)
	for _, s := range c.snapshot() {
		if s != target {
			s.Delete(key)
		}
	}
	target.Set(key, entry, ttlcache.DefaultTTL)
	return entry
}

// InvalidatePrefix drops every entry whose key starts with prefix.
func (c *ResponseCache) InvalidatePrefix(prefix string) int {
	removed := 0
	for _, s := range c.snapshot() {
		for _, key := range liveKeys(s) {
			if strings.HasPrefix(key, prefix) {
				s.Delete(key)
				removed++
			}
		}
	}
	return removed
}

// Len counts stored entries, including expired ones not yet swept.
func (c *ResponseCache) Len() int {
	n := 0
	for _, s := range c.snapshot() {
		n += len(liveKeys(s))
	}
	return n
}

func (c *ResponseCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ttl, s := range c.stores {
		s.Close()
		delete(c.stores, ttl)
	}
}

// liveKeys drops the zero keys ttlcache.GetKeys pads its result with.
func liveKeys(s *ttlcache.Cache[string, Entry]) []string {
	keys := s.GetKeys()
	out := keys[:0]
	for _, key := range keys {
		if key != "" {
			out = append(out, key)
		}
	}
	return out
}

// ETag is a strong validator derived from the body hash.
func ETag(body []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
}
