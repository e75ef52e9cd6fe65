package probecache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProber struct {
	calls int
	err   error
}

func (p *countingProber) CheckConnection(ctx context.Context) error {
	p.calls++
	return p.err
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

var creds = source.Credentials{Type: source.AuthAPI, APIKey: "SG.secret"}

const endpoint = "https://api.sendgrid.com/v3"

func TestSuccessIsCached(t *testing.T) {
	_, rdb := setupRedis(t)
	cache := New(rdb, time.Minute)
	inner := &countingProber{}

	p := cache.Wrap(endpoint, creds, inner)
	require.NoError(t, p.CheckConnection(context.Background()))
	require.NoError(t, p.CheckConnection(context.Background()))
	require.NoError(t, cache.Wrap(endpoint, creds, inner).CheckConnection(context.Background()))

	assert.Equal(t, 1, inner.calls)
}

func TestFailureIsNotCached(t *testing.T) {
	_, rdb := setupRedis(t)
	cache := New(rdb, time.Minute)
	inner := &countingProber{err: errors.New("401 unauthorized")}

	p := cache.Wrap(endpoint, creds, inner)
	assert.Error(t, p.CheckConnection(context.Background()))
	assert.Error(t, p.CheckConnection(context.Background()))
	assert.Equal(t, 2, inner.calls)
}

func TestEntryExpires(t *testing.T) {
	mr, rdb := setupRedis(t)
	cache := New(rdb, time.Minute)
	inner := &countingProber{}
	p := cache.Wrap(endpoint, creds, inner)

	require.NoError(t, p.CheckConnection(context.Background()))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, p.CheckConnection(context.Background()))
	assert.Equal(t, 2, inner.calls)
}

func TestInvalidate(t *testing.T) {
	_, rdb := setupRedis(t)
	cache := New(rdb, time.Minute)
	inner := &countingProber{}
	p := cache.Wrap(endpoint, creds, inner)

	require.NoError(t, p.CheckConnection(context.Background()))
	require.NoError(t, cache.Invalidate(context.Background(), endpoint, creds))
	require.NoError(t, p.CheckConnection(context.Background()))
	assert.Equal(t, 2, inner.calls)
}

func TestRedisDownFallsThrough(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Close()
	inner := &countingProber{}

	require.NoError(t, New(rdb, time.Minute).Wrap(endpoint, creds, inner).CheckConnection(context.Background()))
	assert.Equal(t, 1, inner.calls)
}

func TestKeyHidesSecrets(t *testing.T) {
	k := Key(endpoint, creds)
	assert.True(t, strings.HasPrefix(k, keyPrefix))
	assert.NotContains(t, k, "SG.secret")
	assert.NotEqual(t, k, Key(endpoint, source.Credentials{Type: source.AuthAPI, APIKey: "SG.other"}))
	assert.NotEqual(t,
		Key(endpoint, source.Credentials{Type: source.AuthBasic, Username: "ab", Password: "c"}),
		Key(endpoint, source.Credentials{Type: source.AuthBasic, Username: "a", Password: "bc"}))
}

func TestKeyIncludesEndpoint(t *testing.T) {
	assert.NotEqual(t, Key(endpoint, creds), Key("https://api.eu.sendgrid.com/v3", creds))
}

func TestSuccessIsScopedToEndpoint(t *testing.T) {
	_, rdb := setupRedis(t)
	cache := New(rdb, time.Minute)
	inner := &countingProber{}

	require.NoError(t, cache.Wrap(endpoint, creds, inner).CheckConnection(context.Background()))
	require.NoError(t, cache.Wrap("https://api.eu.sendgrid.com/v3", creds, inner).CheckConnection(context.Background()))
	require.NoError(t, cache.Wrap(endpoint, creds, inner).CheckConnection(context.Background()))
	assert.Equal(t, 2, inner.calls)
}
