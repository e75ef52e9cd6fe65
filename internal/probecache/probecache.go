// Package probecache remembers successful SendGrid connectivity probes in
// Redis so repeated validation calls from a UI do not hit the API each time.
// Failures are never cached.
package probecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sendgrid-source:probe:"

// Prober is the connectivity check being cached.
type Prober interface {
	CheckConnection(ctx context.Context) error
}

// Cache stores probe results keyed by a hash of the API endpoint and the
// credentials.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a Cache. A zero ttl falls back to five minutes.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Wrap returns a Prober that consults the cache before calling p, which
// probes endpoint with creds.
func (c *Cache) Wrap(endpoint string, creds source.Credentials, p Prober) Prober {
	return &cachedProber{cache: c, key: Key(endpoint, creds), next: p}
}

// Invalidate forgets the cached result for creds against endpoint.
func (c *Cache) Invalidate(ctx context.Context, endpoint string, creds source.Credentials) error {
	return c.rdb.Del(ctx, Key(endpoint, creds)).Err()
}

// Key derives the cache key. Credentials are hashed so secrets never reach Redis.
func Key(endpoint string, creds source.Credentials) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(creds.Type))
	h.Write([]byte{0})
	h.Write([]byte(creds.APIKey))
	h.Write([]byte{0})
	h.Write([]byte(creds.Username))
	h.Write([]byte{0})
	h.Write([]byte(creds.Password))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

type cachedProber struct {
	cache *Cache
	key   string
	next  Prober
}

func (p *cachedProber) CheckConnection(ctx context.Context) error {
	n, err := p.cache.rdb.Exists(ctx, p.key).Result()
	if err != nil {
		logger.Warn("probe cache lookup failed", "error", err)
	} else if n > 0 {
		return nil
	}

	if err := p.next.CheckConnection(ctx); err != nil {
		return err
	}

	if err := p.cache.rdb.Set(ctx, p.key, time.Now().UTC().Format(time.RFC3339), p.cache.ttl).Err(); err != nil {
		logger.Warn("probe cache store failed", "error", err)
	}
	return nil
}
