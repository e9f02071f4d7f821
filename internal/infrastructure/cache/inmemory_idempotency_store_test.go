package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/backend/internal/infrastructure/config"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("records a new request key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "convert-po-001", 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew, "new key should return true")
	})

	t.Run("returns false for a replayed key", func(t *testing.T) {
		key := "convert-po-002"

		isNew, err := store.MarkProcessed(ctx, key, 1*time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, key, 1*time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew, "replayed key should return false")
	})

	t.Run("allows reuse after expiration", func(t *testing.T) {
		key := "convert-po-003"

		isNew, err := store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew)

		time.Sleep(20 * time.Millisecond)

		isNew, err = store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, isNew, "expired key should be reusable")
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns false for an unseen key", func(t *testing.T) {
		processed, err := store.IsProcessed(ctx, "unknown-key")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("returns true for a recorded key", func(t *testing.T) {
		key := "recorded-key"
		_, err := store.MarkProcessed(ctx, key, 1*time.Hour)
		require.NoError(t, err)

		processed, err := store.IsProcessed(ctx, key)
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("returns false for an expired key", func(t *testing.T) {
		key := "expired-key"
		_, err := store.MarkProcessed(ctx, key, 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, key)
		require.NoError(t, err)
		assert.False(t, processed, "expired key should return false")
	})
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.MarkProcessed(ctx, "short-lived-1", 10*time.Millisecond)
	store.MarkProcessed(ctx, "short-lived-2", 10*time.Millisecond)
	store.MarkProcessed(ctx, "long-lived", 1*time.Hour)

	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())

	processed, err := store.IsProcessed(ctx, "long-lived")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.IsProcessed(ctx, "short-lived-1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100
	const key = "contended-key"

	results := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			isNew, err := store.MarkProcessed(ctx, key, 1*time.Hour)
			if err != nil {
				results <- false
			} else {
				results <- isNew
			}
		}()
	}

	newCount := 0
	duplicateCount := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			newCount++
		} else {
			duplicateCount++
		}
	}

	// Exactly one goroutine should win the key.
	assert.Equal(t, 1, newCount)
	assert.Equal(t, numGoroutines-1, duplicateCount)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	err := store.Close()
	assert.NoError(t, err)

	// Multiple closes should be safe.
	err = store.Close()
	assert.NoError(t, err)
}

func TestIdempotencyStoreFactory_MemoryBackend(t *testing.T) {
	factory := NewIdempotencyStoreFactory(
		config.IdempotencyConfig{Enabled: true, Backend: "memory", TTL: time.Hour},
		config.RedisConfig{},
	)

	store, err := factory.CreateStore()
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok, "memory backend should create an in-memory store")
}

func TestIdempotencyStoreFactory_UnknownBackend(t *testing.T) {
	factory := NewIdempotencyStoreFactory(
		config.IdempotencyConfig{Enabled: true, Backend: "memcached"},
		config.RedisConfig{},
	)

	_, err := factory.CreateStore()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown idempotency backend")
}
