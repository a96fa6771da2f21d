package repository

import (
	"context"
	"testing"

	"sweet-heaven/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, NewProductRepository(pool, zerolog.Nop()).Upsert(ctx, sampleProducts()))
	repo := NewCartRepository(pool, zerolog.Nop())

	shopper := uuid.New()
	other := uuid.New()

	t.Run("Empty cart", func(t *testing.T) {
		lines, err := repo.List(ctx, shopper)
		require.NoError(t, err)
		assert.NotNil(t, lines)
		assert.Empty(t, lines)
	})

	t.Run("Add lines in order", func(t *testing.T) {
		require.NoError(t, repo.SetQuantity(ctx, shopper, 2, 1))
		require.NoError(t, repo.SetQuantity(ctx, shopper, 1, 2))
		require.NoError(t, repo.SetQuantity(ctx, other, 3, 4))

		lines, err := repo.List(ctx, shopper)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, int64(2), lines[0].ID)
		assert.Equal(t, "Eclair", lines[0].Name)
		assert.Equal(t, 1, lines[0].Quantity)
		assert.Equal(t, int64(1), lines[1].ID)
		assert.Equal(t, 2, lines[1].Quantity)
		assert.Equal(t, []string{"croissant.jpg"}, lines[1].Images)
	})

	t.Run("Update keeps position", func(t *testing.T) {
		require.NoError(t, repo.SetQuantity(ctx, shopper, 2, 5))

		lines, err := repo.List(ctx, shopper)
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, int64(2), lines[0].ID)
		assert.Equal(t, 5, lines[0].Quantity)
	})

	t.Run("Zero removes and is idempotent", func(t *testing.T) {
		require.NoError(t, repo.SetQuantity(ctx, shopper, 2, 0))
		require.NoError(t, repo.SetQuantity(ctx, shopper, 2, 0))

		lines, err := repo.List(ctx, shopper)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, int64(1), lines[0].ID)
	})

	t.Run("Unknown product", func(t *testing.T) {
		err := repo.SetQuantity(ctx, shopper, 404, 1)
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("Clear only touches one session", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx, shopper))

		lines, err := repo.List(ctx, shopper)
		require.NoError(t, err)
		assert.Empty(t, lines)

		lines, err = repo.List(ctx, other)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
}
