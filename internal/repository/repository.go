package repository

import (
	"context"

	"sweet-heaven/internal/model"

	"github.com/google/uuid"
)

// ProductRepository defines the data access operations on the local
// catalogue mirror.
type ProductRepository interface {
	// Upsert inserts or refreshes products in one batch.
	Upsert(ctx context.Context, products []model.Product) error

	// GetAll retrieves products ordered by name with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product. It returns nil, nil when the
	// product does not exist.
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}

// CartRepository defines the data access operations on locally stored
// cart lines, keyed by shopper session.
type CartRepository interface {
	// List returns the lines of a session joined with their products, in
	// the order they were first added.
	List(ctx context.Context, sessionID uuid.UUID) ([]model.CartLine, error)

	// SetQuantity sets the quantity of a line. A quantity of zero or less
	// deletes it. Unknown products yield model.ErrProductNotFound.
	SetQuantity(ctx context.Context, sessionID uuid.UUID, productID int64, quantity int) error

	// Clear deletes every line of a session.
	Clear(ctx context.Context, sessionID uuid.UUID) error
}
