package cart

import (
	"context"
	"fmt"

	"sweet-heaven/internal/model"

	"github.com/google/uuid"
)

// Backend persists the cart. Every mutation returns the complete new cart.
type Backend interface {
	Fetch(ctx context.Context) ([]model.CartLine, error)
	SetQuantity(ctx context.Context, productID int64, quantity int) ([]model.CartLine, error)
	Clear(ctx context.Context) error
	Checkout(ctx context.Context) (*model.CheckoutResponse, error)
}

// RemoteAPI is the part of the storefront REST API the remote backend uses.
type RemoteAPI interface {
	GetCart(ctx context.Context) ([]model.CartLine, error)
	SetCartQuantity(ctx context.Context, productID int64, quantity int) ([]model.CartLine, error)
	ClearCart(ctx context.Context) error
	Checkout(ctx context.Context) (*model.CheckoutResponse, error)
}

type remoteBackend struct {
	api RemoteAPI
}

// NewRemoteBackend creates a backend over the server-held cart.
func NewRemoteBackend(api RemoteAPI) Backend {
	return &remoteBackend{api: api}
}

func (b *remoteBackend) Fetch(ctx context.Context) ([]model.CartLine, error) {
	return b.api.GetCart(ctx)
}

func (b *remoteBackend) SetQuantity(ctx context.Context, productID int64, quantity int) ([]model.CartLine, error) {
	return b.api.SetCartQuantity(ctx, productID, quantity)
}

func (b *remoteBackend) Clear(ctx context.Context) error {
	return b.api.ClearCart(ctx)
}

func (b *remoteBackend) Checkout(ctx context.Context) (*model.CheckoutResponse, error) {
	return b.api.Checkout(ctx)
}

// LineRepository stores cart lines per shopper session.
type LineRepository interface {
	List(ctx context.Context, sessionID uuid.UUID) ([]model.CartLine, error)
	SetQuantity(ctx context.Context, sessionID uuid.UUID, productID int64, quantity int) error
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

type localBackend struct {
	repo      LineRepository
	sessionID uuid.UUID
}

// NewLocalBackend creates a backend over a local database for standalone
// use. Checkout is not available in this mode.
func NewLocalBackend(repo LineRepository, sessionID uuid.UUID) Backend {
	return &localBackend{repo: repo, sessionID: sessionID}
}

func (b *localBackend) Fetch(ctx context.Context) ([]model.CartLine, error) {
	return b.repo.List(ctx, b.sessionID)
}

func (b *localBackend) SetQuantity(ctx context.Context, productID int64, quantity int) ([]model.CartLine, error) {
	if err := b.repo.SetQuantity(ctx, b.sessionID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to set quantity for product %d: %w", productID, err)
	}
	return b.repo.List(ctx, b.sessionID)
}

func (b *localBackend) Clear(ctx context.Context) error {
	return b.repo.Clear(ctx, b.sessionID)
}

func (b *localBackend) Checkout(ctx context.Context) (*model.CheckoutResponse, error) {
	return nil, model.ErrCheckoutUnavailable
}
