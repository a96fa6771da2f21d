package promotion

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"sweet-heaven/internal/model"

	"github.com/rs/zerolog"
)

// Store holds the promotion catalog for one session.
type Store struct {
	api          API
	snapshot     Loader
	snapshotPath string
	now          func() time.Time
	logger       zerolog.Logger

	mu         sync.RWMutex
	promotions []model.Promotion
	loaded     bool
	errMsg     string
	closed     bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSnapshot sets the offline snapshot used when the API cannot be reached.
func WithSnapshot(loader Loader, path string) StoreOption {
	return func(s *Store) {
		s.snapshot = loader
		s.snapshotPath = path
	}
}

// WithClock overrides the clock handed to engines.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty promotion store. Call Load to fill it.
func NewStore(api API, logger zerolog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		api:        api,
		now:        time.Now,
		logger:     logger.With().Str("store", "promotion").Logger(),
		promotions: []model.Promotion{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the catalog with the API's promotions, or with the offline
// snapshot when the API fails. IsLoaded is true afterwards either way.
func (s *Store) Load(ctx context.Context) error {
	promotions, err := s.api.ListPromotions(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch promotions")
		promotions, err = s.loadSnapshot(ctx, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ErrSessionClosed
	}
	s.loaded = true
	if err != nil {
		s.errMsg = err.Error()
		return err
	}

	s.promotions = promotions
	s.errMsg = ""
	s.logger.Debug().Int("count", len(promotions)).Msg("promotions loaded")
	return nil
}

func (s *Store) loadSnapshot(ctx context.Context, apiErr error) ([]model.Promotion, error) {
	if s.snapshot == nil || s.snapshotPath == "" {
		return nil, fmt.Errorf("failed to load promotions: %w", apiErr)
	}

	promotions, err := s.snapshot.Load(ctx, s.snapshotPath)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.snapshotPath).Msg("failed to load promotion snapshot")
		return nil, fmt.Errorf("failed to load promotions: %w", apiErr)
	}

	s.logger.Warn().Str("path", s.snapshotPath).Msg("using offline promotion snapshot")
	return promotions, nil
}

// IsLoaded reports whether the initial load has completed.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Error returns the message of the last failed operation, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Promotions returns a copy of the catalog, newest first after Create.
func (s *Store) Promotions() []model.Promotion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.promotions)
}

// Engine returns a pricing engine over the current catalog.
func (s *Store) Engine() *Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewEngine(s.promotions, s.now)
}

// Create validates req, creates the promotion and prepends it to the catalog.
func (s *Store) Create(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error) {
	if err := req.Validate(); err != nil {
		s.setError(err)
		return nil, err
	}

	created, err := s.api.CreatePromotion(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", req.ProductID).Msg("failed to create promotion")
		err = fmt.Errorf("failed to create promotion: %w", err)
		s.setError(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, model.ErrSessionClosed
	}
	s.promotions = append([]model.Promotion{*created}, s.promotions...)
	s.errMsg = ""

	s.logger.Info().
		Int64("promotion_id", created.ID).
		Int64("product_id", created.ProductID).
		Int("discount", created.Discount).
		Msg("promotion created")

	return created, nil
}

// Delete removes a promotion remotely and from the catalog.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeletePromotion(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("promotion_id", id).Msg("failed to delete promotion")
		err = fmt.Errorf("failed to delete promotion %d: %w", id, err)
		s.setError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ErrSessionClosed
	}
	s.promotions = slices.DeleteFunc(s.promotions, func(p model.Promotion) bool {
		return p.ID == id
	})
	s.errMsg = ""

	s.logger.Info().Int64("promotion_id", id).Msg("promotion deleted")
	return nil
}

// Close detaches the store; responses that arrive later are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.errMsg = err.Error()
	}
}
