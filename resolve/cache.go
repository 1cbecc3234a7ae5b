package resolve

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/neovate-digital/namesys/name"
	"github.com/neovate-digital/namesys/record"
)

// CacheOptions controls the caching wrapper.
type CacheOptions struct {
	// Size bounds the number of cached names; zero means 256.
	Size int
	// MaxTTL caps how long any answer is served from cache, regardless of
	// the record's own freshness hint; zero means record.DefaultTTL.
	MaxTTL time.Duration
	// Clock supplies the current time.
	Clock clock.Clock
}

func (o CacheOptions) withDefaults() CacheOptions {
	if o.Size <= 0 {
		o.Size = 256
	}
	if o.MaxTTL <= 0 {
		o.MaxTTL = record.DefaultTTL
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

type cacheEntry struct {
	res    *Result
	stored time.Time
	ttl    time.Duration
}

// Cached wraps a strategy with an LRU answer cache.
//
// An answer is served from cache while it is fresh: at most the record's
// TTL, never longer than MaxTTL. The wrapper keeps the inner strategy's
// name, so a chain sees one strategy either way.
type Cached struct {
	inner  Strategy
	lru    *expirable.LRU[string, cacheEntry]
	maxTTL time.Duration
	clk    clock.Clock
}

var _ Strategy = (*Cached)(nil)

// NewCached wraps inner with a cache.
func NewCached(inner Strategy, opts CacheOptions) *Cached {
	opts = opts.withDefaults()
	return &Cached{
		inner:  inner,
		lru:    expirable.NewLRU[string, cacheEntry](opts.Size, nil, opts.MaxTTL),
		maxTTL: opts.MaxTTL,
		clk:    opts.Clock,
	}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Resolve(ctx context.Context, n name.Name) (*Result, error) {
	key := n.String()
	if e, ok := c.lru.Get(key); ok {
		if c.clk.Now().Sub(e.stored) <= e.ttl {
			out := *e.res
			return &out, nil
		}
		c.lru.Remove(key)
	}

	res, err := c.inner.Resolve(ctx, n)
	if err != nil {
		return nil, err
	}
	ttl := c.maxTTL
	if res.Record != nil && res.Record.TTL > 0 && res.Record.TTL < ttl {
		ttl = res.Record.TTL
	}
	stored := *res
	c.lru.Add(key, cacheEntry{res: &stored, stored: c.clk.Now(), ttl: ttl})
	return res, nil
}

// Invalidate drops the cached answer for n, if any. Publishers call this
// after a successful publish so the next resolve sees the new record.
func (c *Cached) Invalidate(n name.Name) {
	c.lru.Remove(n.String())
}

// Purge drops every cached answer.
func (c *Cached) Purge() {
	c.lru.Purge()
}
