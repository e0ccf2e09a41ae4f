package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

func openTestStore(t *testing.T) *CursorStore {
	t.Helper()
	dsn := os.Getenv("GLOWBOX_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GLOWBOX_TEST_POSTGRES_DSN not set")
	}

	store, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// Isolate each test under its own key.
	return store.WithKey("test-" + uuid.NewString())
}

func TestOpen_MissingDSN(t *testing.T) {
	_, err := Open(context.Background(), "")

	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestCursorStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Set(ctx, "AAE1"))
	require.NoError(t, store.Set(ctx, "AAE2"))

	cursor, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AAE2", cursor)

	require.NoError(t, store.Set(ctx, ""))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
