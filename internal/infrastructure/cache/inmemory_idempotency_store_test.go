package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	t.Run("marks new key", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		marked, err := store.MarkProcessed(context.Background(), "callback-1", time.Minute)

		require.NoError(t, err)
		assert.True(t, marked)
	})

	t.Run("rejects already processed key", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(context.Background(), "callback-1", time.Minute)
		require.NoError(t, err)

		marked, err := store.MarkProcessed(context.Background(), "callback-1", time.Minute)

		require.NoError(t, err)
		assert.False(t, marked)
	})

	t.Run("allows re-marking after expiry", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(context.Background(), "callback-1", -time.Second)
		require.NoError(t, err)

		marked, err := store.MarkProcessed(context.Background(), "callback-1", time.Minute)

		require.NoError(t, err)
		assert.True(t, marked)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	processed, err := store.IsProcessed(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(context.Background(), "callback-1", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(context.Background(), "callback-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_Unmark(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	_, err := store.MarkProcessed(context.Background(), "callback-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Unmark(context.Background(), "callback-1"))

	// A retried handler can mark the key again
	marked, err := store.MarkProcessed(context.Background(), "callback-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, marked)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
