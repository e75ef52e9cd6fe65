// Package app holds the startup wiring shared by the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/probecache"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/ignite/sendgrid-source/internal/validation"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for cfg, or nil when no address is configured
// or Redis does not answer. Callers fall back to running without Redis.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	var rdb *redis.Client
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		opts, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			log.Printf("Warning: invalid Redis URL: %v", err)
			return nil
		}
		rdb = redis.NewClient(opts)
	} else {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed (%s): %v", cfg.Addr, err)
		rdb.Close()
		return nil
	}
	log.Printf("Redis connected: %s", cfg.Addr)
	return rdb
}

// OpenPostgres opens and pings a database.
func OpenPostgres(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

type probeStore interface {
	Wrap(endpoint string, creds source.Credentials, p probecache.Prober) probecache.Prober
	Invalidate(ctx context.Context, endpoint string, creds source.Credentials) error
}

// ProbeCache remembers successful connectivity probes against the configured
// SendGrid endpoint: in Redis when a client is given, in process otherwise.
type ProbeCache struct {
	cfg   config.SendGridConfig
	store probeStore
}

// NewProbeCache returns a ProbeCache for cfg.BaseURL.
func NewProbeCache(cfg config.SendGridConfig, rdb *redis.Client, ttl time.Duration) *ProbeCache {
	var store probeStore = probecache.NewLocal(0, ttl)
	if rdb != nil {
		store = probecache.New(rdb, ttl)
	}
	return &ProbeCache{cfg: cfg, store: store}
}

// Factory builds SendGrid clients for the validator's connectivity probe.
func (c *ProbeCache) Factory() validation.ClientFactory {
	return func(creds source.Credentials) validation.Prober {
		return c.store.Wrap(c.cfg.BaseURL, creds, sendgrid.NewClient(c.cfg, creds))
	}
}

// Invalidate forgets the cached probe for creds so the next validation
// probes again.
func (c *ProbeCache) Invalidate(ctx context.Context, creds source.Credentials) error {
	return c.store.Invalidate(ctx, c.cfg.BaseURL, creds)
}

// ProbeFactory is NewProbeCache(cfg, rdb, ttl).Factory().
func ProbeFactory(cfg config.SendGridConfig, rdb *redis.Client, ttl time.Duration) validation.ClientFactory {
	return NewProbeCache(cfg, rdb, ttl).Factory()
}

// NewValidator returns a validator probing through a fresh ProbeCache.
func NewValidator(cfg *config.Config, rdb *redis.Client, opts ...validation.Option) *validation.Validator {
	return NewValidatorWithCache(cfg, NewProbeCache(cfg.SendGrid, rdb, cfg.Redis.ProbeCacheTTL()), opts...)
}

// NewValidatorWithCache returns a validator probing through pc.
func NewValidatorWithCache(cfg *config.Config, pc *ProbeCache, opts ...validation.Option) *validation.Validator {
	opts = append([]validation.Option{validation.WithProbeTimeout(cfg.SendGrid.ProbeTimeout())}, opts...)
	return validation.New(pc.Factory(), opts...)
}
