package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[url]++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf(`{"url":%q,"n":%d}`, url, f.calls[url])), nil
}

func (f *countingFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestResponseCache_CollapsesWithinTTL(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{}
	clk := &clock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	var hits, misses int
	c := NewResponseCache(fetcher, Options{
		TTL: time.Second,
		Now: clk.Now,
		OnLookup: func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		},
	})
	ctx := context.Background()

	first, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	clk.Advance(500 * time.Millisecond)
	second, err := c.Get(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.count("u1"))
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	clk.Advance(time.Second)
	_, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.count("u1"))
}

func TestResponseCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	upstream := errors.New("boom")
	fetcher := &countingFetcher{err: upstream}
	c := NewResponseCache(fetcher, Options{})

	_, err := c.Get(context.Background(), "u1")
	require.ErrorIs(t, err, upstream)
	_, err = c.Get(context.Background(), "u1")
	require.ErrorIs(t, err, upstream)
	assert.Equal(t, 2, fetcher.count("u1"))
	assert.Zero(t, c.Len())
}

func TestResponseCache_EvictsOldEntriesPastBound(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{}
	clk := &clock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewResponseCache(fetcher, Options{TTL: time.Second, EvictAge: 30 * time.Second, MaxEntries: 3, Now: clk.Now})
	ctx := context.Background()

	for i := range 3 {
		_, err := c.Get(ctx, fmt.Sprintf("old-%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.Len())

	clk.Advance(31 * time.Second)
	_, err := c.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}
