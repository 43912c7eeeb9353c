package storage_test

import (
	"context"
	"testing"

	"github.com/2300031420/Tastoria5/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	_, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "token", []byte("tok-1")))

	got, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("tok-1"), got)

	// The store hands out copies, not aliases.
	got[0] = 'X'
	again, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("tok-1"), again)

	require.NoError(t, s.Delete(ctx, "token"))
	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting a missing key is fine.
	assert.NoError(t, s.Delete(ctx, "token"))
}
