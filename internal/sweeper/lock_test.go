package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRedisStore struct {
	values map[string]string
}

func newStubRedisStore() *stubRedisStore {
	return &stubRedisStore{values: map[string]string{}}
}

func (s *stubRedisStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *stubRedisStore) Get(ctx context.Context, key string) (string, error) {
	value, exists := s.values[key]
	if !exists {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubRedisStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStubRedisStore()

	lock, err := NewRedisLock(store, "sweep:lock", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// a second holder is refused while the key exists
	other, err := NewRedisLock(store, "sweep:lock", time.Minute)
	require.NoError(t, err)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, lock.Release(ctx))

	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockReleaseKeepsForeignOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStubRedisStore()

	lock, err := NewRedisLock(store, "sweep:lock", time.Minute)
	require.NoError(t, err)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// the key expired and someone else took the lock
	store.values["sweep:lock"] = "someone-else"

	require.NoError(t, lock.Release(ctx))
	require.Equal(t, "someone-else", store.values["sweep:lock"])
}

func TestRedisLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	t.Parallel()

	store := newStubRedisStore()
	lock, err := NewRedisLock(store, "sweep:lock", time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))
}
