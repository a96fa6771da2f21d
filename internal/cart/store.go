package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"sweet-heaven/internal/model"
	"sweet-heaven/internal/promotion"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store is the shopper's cart. Every mutation replaces the local lines with
// the snapshot the backend returns; a failed mutation leaves them untouched.
type Store struct {
	backend Backend
	pricing promotion.PricingSource
	logger  zerolog.Logger
	guard   bool

	mu      sync.RWMutex
	lines   []model.CartLine
	loaded  bool
	errMsg  string
	closed  bool
	issued  uint64
	applied uint64
}

// PricedLine is a cart line with its promotion pricing resolved.
type PricedLine struct {
	model.CartLine
	Pricing promotion.PriceDisplay `json:"pricing"`
	Total   float64                `json:"total"`
}

// Option configures a Store.
type Option func(*Store)

// WithStaleResponseGuard discards responses to mutations issued before the
// last one applied. Without it the last response to arrive wins.
func WithStaleResponseGuard() Option {
	return func(s *Store) {
		s.guard = true
	}
}

// NewStore creates an empty cart store. Call Load to fill it.
func NewStore(backend Backend, pricing promotion.PricingSource, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		pricing: pricing,
		logger:  logger.With().Str("store", "cart").Logger(),
		lines:   []model.CartLine{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the cart. IsLoaded is true afterwards even on failure.
func (s *Store) Load(ctx context.Context) error {
	seq, err := s.begin()
	if err != nil {
		return err
	}

	lines, err := s.backend.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.ErrSessionClosed
	}
	s.loaded = true
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load cart")
		err = fmt.Errorf("failed to load cart: %w", err)
		s.errMsg = err.Error()
		return err
	}
	s.applyLocked(seq, lines)
	return nil
}

// AddToCart adds quantity units of product on top of what is already in
// the cart.
func (s *Store) AddToCart(ctx context.Context, product model.Product, quantity int) error {
	if quantity < 1 {
		s.setError(model.ErrInvalidQuantity)
		return model.ErrInvalidQuantity
	}
	return s.setQuantity(ctx, product.ID, s.ItemQuantity(product.ID)+quantity)
}

// RemoveFromCart removes a product from the cart.
func (s *Store) RemoveFromCart(ctx context.Context, productID int64) error {
	return s.setQuantity(ctx, productID, 0)
}

// UpdateQuantity sets the quantity of a product. Zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	return s.setQuantity(ctx, productID, max(quantity, 0))
}

// IncreaseQuantity adds one unit of a product already in the cart.
func (s *Store) IncreaseQuantity(ctx context.Context, productID int64) error {
	current, ok := s.lineQuantity(productID)
	if !ok {
		return nil
	}
	return s.UpdateQuantity(ctx, productID, current+1)
}

// DecreaseQuantity removes one unit of a product already in the cart.
func (s *Store) DecreaseQuantity(ctx context.Context, productID int64) error {
	current, ok := s.lineQuantity(productID)
	if !ok {
		return nil
	}
	return s.UpdateQuantity(ctx, productID, max(current-1, 0))
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	seq, err := s.begin()
	if err != nil {
		return err
	}

	if err := s.backend.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to clear cart")
		err = fmt.Errorf("failed to clear cart: %w", err)
		s.setError(err)
		return err
	}

	s.apply(seq, nil)
	s.logger.Info().Msg("cart cleared")
	return nil
}

// Checkout turns the cart into an order and empties the local cart.
func (s *Store) Checkout(ctx context.Context) (*model.CheckoutResponse, error) {
	seq, err := s.begin()
	if err != nil {
		return nil, err
	}

	resp, err := s.backend.Checkout(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("checkout failed")
		err = fmt.Errorf("checkout failed: %w", err)
		s.setError(err)
		return nil, err
	}

	s.apply(seq, nil)
	s.logger.Info().
		Str("order_id", resp.OrderID.String()).
		Float64("total", resp.Total).
		Msg("checkout completed")
	return resp, nil
}

func (s *Store) setQuantity(ctx context.Context, productID int64, quantity int) error {
	seq, err := s.begin()
	if err != nil {
		return err
	}

	lines, err := s.backend.SetQuantity(ctx, productID, quantity)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("product_id", productID).
			Int("quantity", quantity).
			Msg("failed to update cart")
		err = fmt.Errorf("failed to update cart: %w", err)
		s.setError(err)
		return err
	}

	s.apply(seq, lines)
	s.logger.Debug().
		Int64("product_id", productID).
		Int("quantity", quantity).
		Msg("cart updated")
	return nil
}

// begin issues the sequence number of a new request.
func (s *Store) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, model.ErrSessionClosed
	}
	s.issued++
	return s.issued, nil
}

func (s *Store) apply(seq uint64, lines []model.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(seq, lines)
}

func (s *Store) applyLocked(seq uint64, lines []model.CartLine) {
	if s.closed {
		return
	}
	if s.guard && seq < s.applied {
		s.logger.Debug().
			Uint64("seq", seq).
			Uint64("applied", s.applied).
			Msg("discarding stale cart response")
		return
	}
	s.applied = seq
	s.lines = filterLines(lines)
	s.errMsg = ""
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.errMsg = err.Error()
	}
}

// filterLines copies lines, dropping any with a non-positive quantity.
func filterLines(lines []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) lineQuantity(productID int64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		if l.ID == productID {
			return l.Quantity, true
		}
	}
	return 0, false
}

// Close detaches the store. Responses that arrive later are dropped and
// further mutations fail with model.ErrSessionClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
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

// Lines returns a copy of the cart lines.
func (s *Store) Lines() []model.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lines)
}

// ItemQuantity returns the quantity of a product, 0 when absent.
func (s *Store) ItemQuantity(productID int64) int {
	q, _ := s.lineQuantity(productID)
	return q
}

// TotalItems returns the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// LinesWithPricing returns the cart lines with live promotion pricing.
func (s *Store) LinesWithPricing() []PricedLine {
	engine := s.engine()
	lines := s.Lines()

	priced := make([]PricedLine, 0, len(lines))
	for _, l := range lines {
		display := engine.PriceDisplay(l.Product)
		priced = append(priced, PricedLine{
			CartLine: l,
			Pricing:  display,
			Total:    lineTotal(display.DiscountedPrice, l.Quantity).InexactFloat64(),
		})
	}
	return priced
}

// TotalPrice returns the promotion-aware total.
func (s *Store) TotalPrice() float64 {
	_, total := s.totals()
	return total.InexactFloat64()
}

// OriginalTotalPrice returns the total before promotions.
func (s *Store) OriginalTotalPrice() float64 {
	original, _ := s.totals()
	return original.InexactFloat64()
}

// TotalSavings returns OriginalTotalPrice minus TotalPrice, never negative.
func (s *Store) TotalSavings() float64 {
	original, total := s.totals()
	return decimal.Max(original.Sub(total), decimal.Zero).InexactFloat64()
}

// totals computes the undiscounted and discounted sums over one snapshot
// of the lines.
func (s *Store) totals() (original, total decimal.Decimal) {
	engine := s.engine()
	for _, l := range s.Lines() {
		original = original.Add(lineTotal(l.Price, l.Quantity))
		total = total.Add(lineTotal(engine.DiscountedPrice(l.Product), l.Quantity))
	}
	return original, total
}

func (s *Store) engine() *promotion.Engine {
	if s.pricing == nil {
		return promotion.NewEngine(nil, nil)
	}
	return s.pricing.Engine()
}

func lineTotal(unitPrice float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
}
