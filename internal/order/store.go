package order

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"slices"
	"sync"

	"sweet-heaven/internal/apiclient"
	"sweet-heaven/internal/model"

	"github.com/rs/zerolog"
)

// API is the part of the storefront REST API the order store talks to.
type API interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id model.OrderID) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id model.OrderID, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(ctx context.Context, id model.OrderID) error
	RequestSlipUpload(ctx context.Context, id model.OrderID) (*model.SlipUploadTarget, error)
	UploadFile(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error
}

// Store holds the orders visible to the current principal. Orders are
// snapshots; their prices are never recomputed.
type Store struct {
	api    API
	logger zerolog.Logger

	mu      sync.RWMutex
	orders  []model.Order
	loaded  bool
	loading int
	errMsg  string
	closed  bool
}

// NewStore creates an empty order store. Orders are fetched by Reload.
func NewStore(api API, logger zerolog.Logger) *Store {
	return &Store{
		api:    api,
		logger: logger.With().Str("store", "order").Logger(),
		orders: []model.Order{},
	}
}

// Reload replaces the local orders with the server's list.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.ErrSessionClosed
	}
	s.loading++
	s.mu.Unlock()

	orders, err := s.api.ListOrders(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if s.closed {
		return model.ErrSessionClosed
	}
	s.loaded = true
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load orders")
		err = fmt.Errorf("failed to load orders: %w", err)
		s.errMsg = err.Error()
		return err
	}

	s.orders = orders
	s.errMsg = ""
	s.logger.Debug().Int("count", len(orders)).Msg("orders loaded")
	return nil
}

// GetByID fetches a single order. A missing order yields
// model.ErrOrderNotFound.
func (s *Store) GetByID(ctx context.Context, id model.OrderID) (*model.Order, error) {
	order, err := s.api.GetOrder(ctx, id)
	if err != nil {
		if apiclient.IsNotFound(err) {
			err = fmt.Errorf("order %s: %w", id, model.ErrOrderNotFound)
		} else {
			err = fmt.Errorf("failed to get order %s: %w", id, err)
		}
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		s.setError(err)
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves an order to status. When the order is cached the
// transition is checked locally before any request is sent.
func (s *Store) UpdateStatus(ctx context.Context, id model.OrderID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		err := fmt.Errorf("unknown status %q: %w", status, model.ErrInvalidStatusTransition)
		s.setError(err)
		return nil, err
	}
	if current, ok := s.cached(id); ok && !CanTransition(current.Status, status) {
		err := fmt.Errorf("order %s %s -> %s: %w", id, current.Status, status, model.ErrInvalidStatusTransition)
		s.setError(err)
		return nil, err
	}

	updated, err := s.api.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		err = fmt.Errorf("failed to update order %s: %w", id, err)
		s.setError(err)
		return nil, err
	}

	s.replace(id, *updated)
	s.logger.Info().
		Str("order_id", id.String()).
		Str("status", string(updated.Status)).
		Msg("order status updated")
	return updated, nil
}

// Advance moves an order one step along the chain. A delivered order is
// left alone and model.ErrNoNextStatus is returned without a request.
func (s *Store) Advance(ctx context.Context, id model.OrderID) (*model.Order, error) {
	current, ok := s.cached(id)
	if !ok {
		fetched, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		current = *fetched
	}

	next, ok := NextStatus(current.Status)
	if !ok {
		return &current, model.ErrNoNextStatus
	}

	updated, err := s.api.UpdateOrderStatus(ctx, id, next)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(next)).
			Msg("failed to advance order")
		err = fmt.Errorf("failed to update order %s: %w", id, err)
		s.setError(err)
		return nil, err
	}

	s.replace(id, *updated)
	s.logger.Info().
		Str("order_id", id.String()).
		Str("status", string(updated.Status)).
		Msg("order advanced")
	return updated, nil
}

// UploadSlip attaches a payment slip: it asks the API for an upload target,
// then PUTs the file there. An empty content type is derived from filename.
func (s *Store) UploadSlip(ctx context.Context, id model.OrderID, filename, contentType string, data []byte) (*model.Order, error) {
	if len(data) == 0 {
		s.setError(model.ErrEmptySlip)
		return nil, model.ErrEmptySlip
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}

	target, err := s.api.RequestSlipUpload(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to request slip upload")
		err = fmt.Errorf("failed to upload slip for order %s: %w", id, err)
		s.setError(err)
		return nil, err
	}

	if err := s.api.UploadFile(ctx, target.UploadURL, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to transfer slip")
		err = fmt.Errorf("failed to upload slip for order %s: %w", id, err)
		s.setError(err)
		return nil, err
	}

	updated := slipApplied(target, id)
	if target.Status == "" {
		if current, ok := s.cached(id); ok {
			current.SlipURL = target.SlipURL
			updated = current
		}
	}
	s.replace(id, updated)

	s.logger.Info().
		Str("order_id", id.String()).
		Str("file", filename).
		Int("bytes", len(data)).
		Msg("payment slip uploaded")
	return &updated, nil
}

// slipApplied returns the order carried by an upload target. Targets that
// only hold the URLs yield an order with just its ID and slip.
func slipApplied(target *model.SlipUploadTarget, id model.OrderID) model.Order {
	if target.Status == "" {
		return model.Order{ID: id, SlipURL: target.SlipURL}
	}
	updated := target.Order
	if updated.ID == "" {
		updated.ID = id
	}
	return updated
}

// Delete removes an order remotely and locally.
func (s *Store) Delete(ctx context.Context, id model.OrderID) error {
	if err := s.api.DeleteOrder(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		err = fmt.Errorf("failed to delete order %s: %w", id, err)
		s.setError(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ErrSessionClosed
	}
	s.orders = slices.DeleteFunc(slices.Clone(s.orders), func(o model.Order) bool {
		return o.ID == id
	})
	s.errMsg = ""

	s.logger.Info().Str("order_id", id.String()).Msg("order deleted")
	return nil
}

// Orders returns a copy of the local orders.
func (s *Store) Orders() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.orders)
}

// IsLoaded reports whether a Reload has completed.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// IsLoading reports whether a Reload is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Error returns the message of the last failed operation, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Close detaches the store; responses that arrive later are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) cached(id model.OrderID) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.orders, func(o model.Order) bool { return o.ID == id })
	if i < 0 {
		return model.Order{}, false
	}
	return s.orders[i], true
}

// replace swaps the local copy of an order for the server's. Orders that
// are not held locally are not added.
func (s *Store) replace(id model.OrderID, updated model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	orders := slices.Clone(s.orders)
	for i := range orders {
		if orders[i].ID == id {
			orders[i] = updated
		}
	}
	s.orders = orders
	s.errMsg = ""
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.errMsg = err.Error()
	}
}
