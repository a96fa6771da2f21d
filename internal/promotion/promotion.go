package promotion

import (
	"context"

	"sweet-heaven/internal/model"
)

// API is the part of the storefront REST API the promotion store talks to.
type API interface {
	ListPromotions(ctx context.Context) ([]model.Promotion, error)
	CreatePromotion(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error)
	DeletePromotion(ctx context.Context, id int64) error
}

// Loader reads an offline promotion snapshot.
type Loader interface {
	// Load reads a gzipped JSON-lines snapshot, one promotion per line.
	Load(ctx context.Context, path string) ([]model.Promotion, error)
}

// PricingSource hands out an engine over the current promotion catalog.
type PricingSource interface {
	Engine() *Engine
}
