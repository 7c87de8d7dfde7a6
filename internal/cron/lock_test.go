package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	data map[string]string
	ttl  time.Duration
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	m.ttl = ttl
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func TestRedisLockExcludesSecondOwner(t *testing.T) {
	store := &memoryStore{data: map[string]string{}}
	ctx := context.Background()

	first, err := NewRedisLock(store, "carins:lock:cron", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "carins:lock:cron", 0)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttl)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.data, "carins:lock:cron")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.data, "carins:lock:cron")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockLeavesForeignOwnerAlone(t *testing.T) {
	store := &memoryStore{data: map[string]string{}}
	ctx := context.Background()

	lock, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// TTL expired and another replica took over
	store.data["k"] = "someone-else"
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.data["k"])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Minute)
	require.Error(t, err)
	_, err = NewRedisLock(&memoryStore{}, "", time.Minute)
	require.Error(t, err)
}
