// Package session is the composition root of one shopper session: it
// builds the promotion, cart and order stores and tears them down together.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sweet-heaven/internal/cart"
	"sweet-heaven/internal/config"
	"sweet-heaven/internal/model"
	"sweet-heaven/internal/order"
	"sweet-heaven/internal/promotion"

	"github.com/rs/zerolog"
)

// API is the storefront REST API as seen by a session.
type API interface {
	promotion.API
	cart.RemoteAPI
	order.API
	ListProducts(ctx context.Context, query string, simple bool) ([]model.Product, error)
}

// CatalogMirror stores the catalogue locally for the standalone cart.
type CatalogMirror interface {
	Upsert(ctx context.Context, products []model.Product) error
}

// Deps are the collaborators a session is built from.
type Deps struct {
	API API
	// Snapshot is the offline promotion source; optional.
	Snapshot promotion.Loader
	// Lines and Catalog back the cart in local mode.
	Lines   cart.LineRepository
	Catalog CatalogMirror
	Logger  zerolog.Logger
}

// Options configure a session.
type Options struct {
	Cart         config.CartConfig
	SnapshotPath string
	// Now overrides the clock used for promotion windows.
	Now func() time.Time
}

// Session owns one set of stores.
type Session struct {
	Promotions *promotion.Store
	Cart       *cart.Store
	Orders     *order.Store

	api     API
	catalog CatalogMirror
	logger  zerolog.Logger
}

// New builds the stores of a session and loads promotions, then the cart.
// Load failures are recorded on the stores and do not fail New; orders are
// loaded on demand.
func New(ctx context.Context, deps Deps, opts Options) (*Session, error) {
	if deps.API == nil {
		return nil, errors.New("session requires an API client")
	}

	mode := opts.Cart.Mode
	if mode == "" {
		mode = config.CartModeRemote
	}

	logger := deps.Logger.With().
		Str("component", "session").
		Str("cart_mode", mode).
		Logger()

	var backend cart.Backend
	switch mode {
	case config.CartModeRemote:
		backend = cart.NewRemoteBackend(deps.API)
	case config.CartModeLocal:
		if deps.Lines == nil || deps.Catalog == nil {
			return nil, errors.New("local cart mode requires cart and catalogue repositories")
		}
		backend = cart.NewLocalBackend(deps.Lines, opts.Cart.SessionID)
	default:
		return nil, fmt.Errorf("invalid cart mode: %s", mode)
	}

	var promoOpts []promotion.StoreOption
	if deps.Snapshot != nil && opts.SnapshotPath != "" {
		promoOpts = append(promoOpts, promotion.WithSnapshot(deps.Snapshot, opts.SnapshotPath))
	}
	if opts.Now != nil {
		promoOpts = append(promoOpts, promotion.WithClock(opts.Now))
	}

	var cartOpts []cart.Option
	if opts.Cart.StaleResponseGuard {
		cartOpts = append(cartOpts, cart.WithStaleResponseGuard())
	}

	promotions := promotion.NewStore(deps.API, deps.Logger, promoOpts...)
	s := &Session{
		Promotions: promotions,
		Cart:       cart.NewStore(backend, promotions, deps.Logger, cartOpts...),
		Orders:     order.NewStore(deps.API, deps.Logger),
		api:        deps.API,
		logger:     logger,
	}
	if mode == config.CartModeLocal {
		s.catalog = deps.Catalog
	}

	if err := s.Promotions.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("starting without promotions")
	}

	if s.catalog != nil {
		if err := s.SyncCatalog(ctx); err != nil {
			logger.Warn().Err(err).Msg("using existing catalogue mirror")
		}
	}

	if err := s.Cart.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("starting with an empty cart")
	}

	logger.Info().
		Bool("promotions_loaded", s.Promotions.IsLoaded()).
		Int("promotions", len(s.Promotions.Promotions())).
		Int("cart_items", s.Cart.TotalItems()).
		Msg("session started")

	return s, nil
}

// SyncCatalog copies the catalogue into the local mirror. It is a no-op
// when the cart is remote.
func (s *Session) SyncCatalog(ctx context.Context) error {
	if s.catalog == nil {
		return nil
	}

	products, err := s.api.ListProducts(ctx, "", true)
	if err != nil {
		return fmt.Errorf("failed to fetch catalogue: %w", err)
	}
	if err := s.catalog.Upsert(ctx, products); err != nil {
		return fmt.Errorf("failed to mirror catalogue: %w", err)
	}

	s.logger.Info().Int("products", len(products)).Msg("catalogue mirrored")
	return nil
}

// Close tears down every store. Responses that arrive afterwards are
// dropped.
func (s *Session) Close() {
	s.Cart.Close()
	s.Orders.Close()
	s.Promotions.Close()
	s.logger.Info().Msg("session closed")
}
