package probecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ignite/sendgrid-source/internal/source"
)

// DefaultLocalSize bounds the in-process cache.
const DefaultLocalSize = 256

// Local is an in-process probe cache for runs without Redis. Entries expire
// after ttl and the least recently used ones are evicted beyond size.
type Local struct {
	lru *expirable.LRU[string, time.Time]
}

// NewLocal returns a Local cache. Non-positive arguments select the defaults.
func NewLocal(size int, ttl time.Duration) *Local {
	if size <= 0 {
		size = DefaultLocalSize
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Local{lru: expirable.NewLRU[string, time.Time](size, nil, ttl)}
}

// Wrap returns a Prober that consults the cache before calling p.
func (l *Local) Wrap(endpoint string, creds source.Credentials, p Prober) Prober {
	return &localProber{cache: l, key: Key(endpoint, creds), next: p}
}

// Invalidate forgets the cached result for creds against endpoint. It never
// fails.
func (l *Local) Invalidate(_ context.Context, endpoint string, creds source.Credentials) error {
	l.lru.Remove(Key(endpoint, creds))
	return nil
}

// Len returns the number of live entries.
func (l *Local) Len() int { return l.lru.Len() }

type localProber struct {
	cache *Local
	key   string
	next  Prober
}

func (p *localProber) CheckConnection(ctx context.Context) error {
	if _, ok := p.cache.lru.Get(p.key); ok {
		return nil
	}
	if err := p.next.CheckConnection(ctx); err != nil {
		return err
	}
	p.cache.lru.Add(p.key, time.Now().UTC())
	return nil
}
