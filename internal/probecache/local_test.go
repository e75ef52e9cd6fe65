package probecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCachesSuccess(t *testing.T) {
	l := NewLocal(0, 0)
	next := &countingProber{}

	require.NoError(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	require.NoError(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, l.Len())

	require.NoError(t, l.Invalidate(context.Background(), endpoint, creds))
	require.NoError(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	assert.Equal(t, 2, next.calls)
}

func TestLocalDoesNotCacheFailure(t *testing.T) {
	l := NewLocal(4, time.Minute)
	next := &countingProber{err: errors.New("401")}

	assert.Error(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	assert.Error(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	assert.Equal(t, 2, next.calls)
	assert.Zero(t, l.Len())
}

func TestLocalExpires(t *testing.T) {
	l := NewLocal(4, 20*time.Millisecond)
	next := &countingProber{}

	require.NoError(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 10*time.Millisecond)
	require.NoError(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	assert.Equal(t, 2, next.calls)
}

func TestLocalEvictsBeyondSize(t *testing.T) {
	l := NewLocal(1, time.Minute)
	other := source.Credentials{Type: source.AuthBasic, Username: "u", Password: "p"}
	next := &countingProber{}

	require.NoError(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	require.NoError(t, l.Wrap(endpoint, other, next).CheckConnection(context.Background()))
	require.NoError(t, l.Wrap(endpoint, creds, next).CheckConnection(context.Background()))
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, 1, l.Len())
}
