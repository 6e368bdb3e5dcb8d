package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/deko-shop-backend/internal/store"
)

func TestNewResetToken(t *testing.T) {
	token, hash, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.Equal(t, HashToken(token), hash)
	assert.NotEqual(t, token, hash)
}

func newSQLTokenStore(t *testing.T) *SQLTokenStore {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	_, err = s.DB.Exec(`INSERT INTO users (id, username, password_hash, role) VALUES (1, 'admin', 'x', 'admin')`)
	require.NoError(t, err)
	return NewSQLTokenStore(s.DB)
}

func TestSQLTokenStore_SingleUse(t *testing.T) {
	ts := newSQLTokenStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Save(ctx, "h1", 1, time.Hour))

	id, err := ts.Consume(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = ts.Consume(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSQLTokenStore_Expired(t *testing.T) {
	ts := newSQLTokenStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Save(ctx, "h1", 1, time.Hour))
	ts.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := ts.Consume(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSQLTokenStore_NewTokenReplacesOld(t *testing.T) {
	ts := newSQLTokenStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Save(ctx, "old", 1, time.Hour))
	require.NoError(t, ts.Save(ctx, "new", 1, time.Hour))

	_, err := ts.Consume(ctx, "old")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = ts.Consume(ctx, "new")
	assert.NoError(t, err)
}

func newRedisTokenStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisTokenStore(client), mr
}

func TestRedisTokenStore_SingleUse(t *testing.T) {
	ts, mr := newRedisTokenStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Save(ctx, "h1", 7, time.Hour))
	assert.True(t, mr.Exists("pwreset:h1"))

	id, err := ts.Consume(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = ts.Consume(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRedisTokenStore_Expired(t *testing.T) {
	ts, mr := newRedisTokenStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Save(ctx, "h1", 7, time.Hour))
	mr.FastForward(61 * time.Minute)

	_, err := ts.Consume(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
