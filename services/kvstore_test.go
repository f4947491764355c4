package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store KVStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, KeyToken, "tok-1"))
	require.NoError(t, store.Set(ctx, KeyUserID, "u-1"))
	require.NoError(t, store.Set(ctx, KeyToken, "tok-2"))

	v, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", v)

	require.NoError(t, store.Delete(ctx, SessionKeys...))
	_, err = store.Get(ctx, KeyUserID)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "avocare:")
	defer store.Close()

	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), KeyUsername, "ana"))
	assert.True(t, mr.Exists("avocare:username"))
}

func TestSecureFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.bin")
	exerciseStore(t, NewSecureFileStore(path, "correct horse"))
}

func TestSecureFileStoreEncryptsAndChecksPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.bin")

	store := NewSecureFileStore(path, "correct horse")
	require.NoError(t, store.Set(ctx, KeyToken, "very-secret-token"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "very-secret-token")

	v, err := NewSecureFileStore(path, "correct horse").Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "very-secret-token", v)

	_, err = NewSecureFileStore(path, "battery staple").Get(ctx, KeyToken)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrKeyNotFound)
}
