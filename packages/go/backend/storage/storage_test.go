package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "user-language")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "user-language", "hi"))
	value, err := store.Get(ctx, "user-language")
	require.NoError(t, err)
	assert.Equal(t, "hi", value)

	require.NoError(t, store.Set(ctx, "user-language", "pa"))
	value, err = store.Get(ctx, "user-language")
	require.NoError(t, err)
	assert.Equal(t, "pa", value)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestSQLiteStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "user-language", "pa"))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	value, err := second.Get(ctx, "user-language")
	require.NoError(t, err)
	assert.Equal(t, "pa", value)
}

func TestRedisStore(t *testing.T) {
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(client, ""))

	raw, err := server.Get(DefaultRedisPrefix + "user-language")
	require.NoError(t, err)
	assert.Equal(t, "pa", raw)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	server.Close()

	store := NewRedisStore(client, "test:")
	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Set(context.Background(), "k", "v"))
}
