package repository

import (
	"context"
	"testing"

	"sweet-heaven/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepository_UpsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())

	require.NoError(t, repo.Upsert(ctx, sampleProducts()))

	p, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, sampleProducts()[0], *p)

	p, err = repo.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.Images)
	assert.Equal(t, "", p.Detail)

	p, err = repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 35.5, p.Price)
}

func TestProductRepository_UpsertRefreshes(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())
	require.NoError(t, repo.Upsert(ctx, sampleProducts()))

	changed := sampleProducts()[0]
	changed.Price = 120
	changed.Stock = 0
	require.NoError(t, repo.Upsert(ctx, []model.Product{changed}))

	p, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 120.0, p.Price)
	assert.Equal(t, 0, p.Stock)

	all, err := repo.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestProductRepository_UpsertEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	assert.NoError(t, repo.Upsert(context.Background(), nil))
}

func TestProductRepository_UpsertInvalidPrice(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	err := repo.Upsert(context.Background(), []model.Product{{ID: 9, Name: "Broken", Price: -1}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert product 9")
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())

	p, err := repo.GetByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductRepository_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewProductRepository(pool, zerolog.Nop())
	require.NoError(t, repo.Upsert(ctx, sampleProducts()))

	tests := []struct {
		name      string
		limit     int
		offset    int
		wantNames []string
	}{
		{"All products by name", 10, 0, []string{"Baguette", "Croissant", "Eclair"}},
		{"First page", 2, 0, []string{"Baguette", "Croissant"}},
		{"Second page", 2, 2, []string{"Eclair"}},
		{"Offset beyond results", 10, 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.GetAll(ctx, tt.limit, tt.offset)
			require.NoError(t, err)

			names := []string{}
			for _, p := range products {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}
