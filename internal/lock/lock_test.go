package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_TryLock(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, err := l.TryLock(ctx)
	require.NoError(t, err)

	_, err = l.TryLock(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	release() // second call is a no-op

	release2, err := l.TryLock(ctx)
	require.NoError(t, err)
	release2()
}

func TestRedis_TryLock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR environment variable not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr)
	require.NoError(t, err)
	defer client.Close()

	key := "debtimport:test-lock:" + uuid.NewString()
	a := NewRedis(client, key, 10*time.Second)
	b := NewRedis(client, key, 10*time.Second)

	release, err := a.TryLock(ctx)
	require.NoError(t, err)

	_, err = b.TryLock(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	releaseB, err := b.TryLock(ctx)
	require.NoError(t, err)
	releaseB()

	assert.Equal(t, int64(0), client.Exists(ctx, key).Val())
}

func TestOpen_WithoutRedisIsLocal(t *testing.T) {
	locker, closeFn, err := Open(context.Background(), "")
	require.NoError(t, err)
	defer closeFn()

	_, ok := locker.(*Local)
	assert.True(t, ok)
}
