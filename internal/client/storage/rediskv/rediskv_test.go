package rediskv

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	r, err := Open(ctx, "redis://"+mr.Addr()+"/0", "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	v, err := r.Get(ctx, "auth.credential")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, "auth.credential", []byte(`{"accessToken":"a"}`)))

	stored, err := mr.Get("test:auth.credential")
	require.NoError(t, err)
	assert.Equal(t, `{"accessToken":"a"}`, stored)
	assert.Zero(t, mr.TTL("test:auth.credential"), "credential records never expire on their own")

	v, err = r.Get(ctx, "auth.credential")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"accessToken":"a"}`), v)

	require.NoError(t, r.Remove(ctx, "auth.credential"))
	require.NoError(t, r.Remove(ctx, "auth.credential"))
	assert.False(t, mr.Exists("test:auth.credential"))
}

func TestDefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	r := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Set(context.Background(), "k", []byte("v")))
	assert.True(t, mr.Exists(DefaultPrefix+"k"))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "not-a-url", "")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = Open(context.Background(), "redis://"+addr, "")
	assert.Error(t, err)
}

func TestServerErrorsAreWrapped(t *testing.T) {
	mr := miniredis.RunT(t)
	r := New(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "")
	t.Cleanup(func() { _ = r.Close() })

	mr.SetError("LOADING")
	_, err := r.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "failed to get k")
}
