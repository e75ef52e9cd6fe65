// Package runlock keeps two extract runs for the same reference name from
// writing at the same time. Redis is used when configured, otherwise a
// PostgreSQL advisory lock on the sink database.
package runlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrHeld is returned by Run when another run owns the lock.
	ErrHeld = errors.New("run lock held by another run")
	// ErrNotOwner is returned when releasing a lock that expired or was taken over.
	ErrNotOwner = errors.New("run lock no longer owned")
	// ErrNoBackend is returned when neither Redis nor a database is available.
	ErrNoBackend = errors.New("no run lock backend configured")
)

// Lock is a non-blocking mutual exclusion lock shared between processes.
type Lock interface {
	// TryAcquire takes the lock if it is free.
	TryAcquire(ctx context.Context) (bool, error)
	// Release gives up the lock.
	Release(ctx context.Context) error
}

// Key returns the lock name for a source reference name.
func Key(referenceName string) string {
	return "sendgrid-source:run:" + referenceName
}

// ForSource picks a backend: Redis when rdb is set, else a PG advisory lock.
func ForSource(rdb *redis.Client, db *sql.DB, referenceName string, ttl time.Duration) (Lock, error) {
	switch {
	case rdb != nil:
		return NewRedis(rdb, Key(referenceName), ttl), nil
	case db != nil:
		return NewAdvisory(db, Key(referenceName)), nil
	default:
		return nil, ErrNoBackend
	}
}

// Run holds l for the duration of fn. It returns ErrHeld without calling fn
// when the lock is taken.
func Run(ctx context.Context, l Lock, fn func(ctx context.Context) error) (err error) {
	ok, err := l.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return ErrHeld
	}
	defer func() {
		// release with a fresh context so a cancelled run still unlocks
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := l.Release(relCtx); relErr != nil && err == nil {
			err = fmt.Errorf("releasing run lock: %w", relErr)
		}
	}()
	return fn(ctx)
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// RedisLock is SET NX with a TTL and an owner token checked on release.
type RedisLock struct {
	rdb   *redis.Client
	key   string
	owner string
	ttl   time.Duration
}

// NewRedis returns a Redis backed lock.
func NewRedis(rdb *redis.Client, key string, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLock{rdb: rdb, key: key, owner: uuid.NewString(), ttl: ttl}
}

func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, l.owner).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotOwner
	}
	return nil
}

// AdvisoryLock uses pg_try_advisory_lock. The lock is session scoped, so it
// pins one connection from the pool until released.
type AdvisoryLock struct {
	db   *sql.DB
	id   int64
	conn *sql.Conn
}

// NewAdvisory returns a PG advisory lock whose id is the FNV-64a hash of key.
func NewAdvisory(db *sql.DB, key string) *AdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &AdvisoryLock{db: db, id: int64(h.Sum64())}
}

func (l *AdvisoryLock) TryAcquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.id).Scan(&ok); err != nil {
		conn.Close()
		return false, err
	}
	if !ok {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

func (l *AdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return ErrNotOwner
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
	}()
	var ok bool
	if err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.id).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return ErrNotOwner
	}
	return nil
}
