package cache

import (
	"context"
	"sync"
	"time"
)

// Fetcher loads the raw payload behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	TTL        time.Duration
	EvictAge   time.Duration
	MaxEntries int
	// OnLookup observes every Get as a hit or miss.
	OnLookup func(hit bool)
	Now      func() time.Time
}

func DefaultOptions() Options {
	return Options{
		TTL:        time.Second,
		EvictAge:   30 * time.Second,
		MaxEntries: 50,
	}
}

type entry struct {
	payload   []byte
	fetchedAt time.Time
}

// ResponseCache collapses repeated fetches of the same URL within a short
// freshness window. Concurrent misses for one URL each issue their own fetch.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]entry
	fetcher Fetcher
	opts    Options
}

func NewResponseCache(fetcher Fetcher, opts Options) *ResponseCache {
	defaults := DefaultOptions()
	if opts.TTL <= 0 {
		opts.TTL = defaults.TTL
	}
	if opts.EvictAge <= 0 {
		opts.EvictAge = defaults.EvictAge
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaults.MaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ResponseCache{
		entries: make(map[string]entry),
		fetcher: fetcher,
		opts:    opts,
	}
}

// Get returns a payload younger than the TTL or fetches a fresh one. Failed
// fetches are never cached.
func (c *ResponseCache) Get(ctx context.Context, url string) ([]byte, error) {
	if payload, ok := c.lookup(url); ok {
		c.observe(true)
		return payload, nil
	}
	c.observe(false)

	payload, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	c.store(url, payload)
	return payload, nil
}

func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResponseCache) lookup(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]
	if !ok || c.opts.Now().Sub(e.fetchedAt) >= c.opts.TTL {
		return nil, false
	}
	return e.payload, true
}

func (c *ResponseCache) store(url string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	c.entries[url] = entry{payload: payload, fetchedAt: now}
	if len(c.entries) <= c.opts.MaxEntries {
		return
	}
	for key, e := range c.entries {
		if now.Sub(e.fetchedAt) > c.opts.EvictAge {
			delete(c.entries, key)
		}
	}
}

func (c *ResponseCache) observe(hit bool) {
	if c.opts.OnLookup != nil {
		c.opts.OnLookup(hit)
	}
}
