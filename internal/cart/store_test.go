package cart

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"sweet-heaven/internal/model"
	"sweet-heaven/internal/promotion"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	croissant = model.Product{ID: 1, Name: "Croissant", Price: 100, Stock: 20}
	eclair    = model.Product{ID: 2, Name: "Eclair", Price: 50, Stock: 10}
)

// memoryBackend is an in-memory server cart.
type memoryBackend struct {
	mu       sync.Mutex
	products map[int64]model.Product
	lines    []model.CartLine
	err      error
	calls    int
}

func newMemoryBackend(products ...model.Product) *memoryBackend {
	b := &memoryBackend{products: map[int64]model.Product{}}
	for _, p := range products {
		b.products[p.ID] = p
	}
	return b
}

func (b *memoryBackend) Fetch(ctx context.Context) ([]model.CartLine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return slices.Clone(b.lines), nil
}

func (b *memoryBackend) SetQuantity(ctx context.Context, productID int64, quantity int) ([]model.CartLine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	product, ok := b.products[productID]
	if !ok {
		return nil, model.ErrProductNotFound
	}

	i := slices.IndexFunc(b.lines, func(l model.CartLine) bool { return l.ID == productID })
	switch {
	case quantity <= 0 && i >= 0:
		b.lines = slices.Delete(b.lines, i, i+1)
	case quantity > 0 && i >= 0:
		b.lines[i].Quantity = quantity
	case quantity > 0:
		b.lines = append(b.lines, model.CartLine{Product: product, Quantity: quantity})
	}
	return slices.Clone(b.lines), nil
}

func (b *memoryBackend) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return b.err
	}
	b.lines = nil
	return nil
}

func (b *memoryBackend) Checkout(ctx context.Context) (*model.CheckoutResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	total := 0.0
	for _, l := range b.lines {
		total += l.Subtotal()
	}
	b.lines = nil
	return &model.CheckoutResponse{OrderID: "101", Total: total, Status: model.StatusPending}, nil
}

func (b *memoryBackend) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

type staticPricing struct {
	engine *promotion.Engine
}

func (p staticPricing) Engine() *promotion.Engine {
	return p.engine
}

func tenPercentOnEclair() promotion.PricingSource {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	promo := model.Promotion{
		ID:        1,
		ProductID: eclair.ID,
		Discount:  10,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	return staticPricing{engine: promotion.NewEngine([]model.Promotion{promo}, func() time.Time { return now })}
}

func newLoadedStore(t *testing.T, backend Backend, pricing promotion.PricingSource, opts ...Option) *Store {
	t.Helper()
	store := NewStore(backend, pricing, zerolog.Nop(), opts...)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func TestStore_Totals(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant, eclair), tenPercentOnEclair())

	require.NoError(t, store.AddToCart(ctx, croissant, 2))
	require.NoError(t, store.AddToCart(ctx, eclair, 1))

	assert.Equal(t, 3, store.TotalItems())
	assert.Equal(t, 250.0, store.OriginalTotalPrice())
	assert.Equal(t, 245.0, store.TotalPrice())
	assert.Equal(t, 5.0, store.TotalSavings())
}

func TestStore_SavingsInvariant(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant, eclair), tenPercentOnEclair())

	steps := []func() error{
		func() error { return store.AddToCart(ctx, eclair, 3) },
		func() error { return store.AddToCart(ctx, croissant, 1) },
		func() error { return store.DecreaseQuantity(ctx, eclair.ID) },
		func() error { return store.RemoveFromCart(ctx, croissant.ID) },
		func() error { return store.ClearCart(ctx) },
	}
	for _, step := range steps {
		require.NoError(t, step())
		savings := store.TotalSavings()
		assert.GreaterOrEqual(t, savings, 0.0)
		assert.InDelta(t, store.OriginalTotalPrice()-store.TotalPrice(), savings, 1e-9)
	}
}

func TestStore_AddToCart_Accumulates(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant), nil)

	require.NoError(t, store.AddToCart(ctx, croissant, 1))
	require.NoError(t, store.AddToCart(ctx, croissant, 2))

	assert.Equal(t, 3, store.ItemQuantity(croissant.ID))
	assert.Len(t, store.Lines(), 1)
}

func TestStore_AddToCart_RejectsNonPositive(t *testing.T) {
	backend := newMemoryBackend(croissant)
	store := newLoadedStore(t, backend, nil)
	calls := backend.calls

	err := store.AddToCart(context.Background(), croissant, 0)

	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.Equal(t, calls, backend.calls)
	assert.NotEmpty(t, store.Error())
}

func TestStore_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		want     int
		present  bool
	}{
		{"Set", 5, 5, true},
		{"Zero removes", 0, 0, false},
		{"Negative removes", -3, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newLoadedStore(t, newMemoryBackend(croissant), nil)
			require.NoError(t, store.AddToCart(ctx, croissant, 2))

			require.NoError(t, store.UpdateQuantity(ctx, croissant.ID, tt.quantity))

			assert.Equal(t, tt.want, store.ItemQuantity(croissant.ID))
			assert.Equal(t, tt.present, len(store.Lines()) == 1)
		})
	}
}

func TestStore_UpdateQuantityZero_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant, eclair), nil)
	require.NoError(t, store.AddToCart(ctx, croissant, 2))
	require.NoError(t, store.AddToCart(ctx, eclair, 1))

	require.NoError(t, store.UpdateQuantity(ctx, croissant.ID, 0))
	once := store.Lines()
	require.NoError(t, store.UpdateQuantity(ctx, croissant.ID, 0))

	assert.Equal(t, once, store.Lines())
}

func TestStore_IncreaseDecrease(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant), nil)
	require.NoError(t, store.AddToCart(ctx, croissant, 1))

	require.NoError(t, store.IncreaseQuantity(ctx, croissant.ID))
	assert.Equal(t, 2, store.ItemQuantity(croissant.ID))

	require.NoError(t, store.DecreaseQuantity(ctx, croissant.ID))
	require.NoError(t, store.DecreaseQuantity(ctx, croissant.ID))
	assert.Equal(t, 0, store.ItemQuantity(croissant.ID))
	assert.Empty(t, store.Lines())
}

func TestStore_IncreaseDecrease_AbsentIsNoop(t *testing.T) {
	backend := newMemoryBackend(croissant)
	store := newLoadedStore(t, backend, nil)
	calls := backend.calls

	require.NoError(t, store.IncreaseQuantity(context.Background(), croissant.ID))
	require.NoError(t, store.DecreaseQuantity(context.Background(), croissant.ID))

	assert.Equal(t, calls, backend.calls)
	assert.Empty(t, store.Lines())
}

func TestStore_FailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := newMemoryBackend(croissant, eclair)
	store := newLoadedStore(t, backend, nil)
	require.NoError(t, store.AddToCart(ctx, croissant, 2))
	before := store.Lines()

	backend.fail(errors.New("network down"))

	assert.Error(t, store.AddToCart(ctx, eclair, 1))
	assert.Error(t, store.UpdateQuantity(ctx, croissant.ID, 9))
	assert.Error(t, store.ClearCart(ctx))
	_, err := store.Checkout(ctx)
	assert.Error(t, err)

	assert.Equal(t, before, store.Lines())
	assert.Contains(t, store.Error(), "network down")

	backend.fail(nil)
	require.NoError(t, store.IncreaseQuantity(ctx, croissant.ID))
	assert.Empty(t, store.Error())
	assert.Equal(t, 3, store.ItemQuantity(croissant.ID))
}

func TestStore_Load(t *testing.T) {
	backend := newMemoryBackend(croissant)
	backend.lines = []model.CartLine{{Product: croissant, Quantity: 4}}

	store := NewStore(backend, nil, zerolog.Nop())
	assert.False(t, store.IsLoaded())
	assert.Equal(t, 0, store.TotalItems())

	require.NoError(t, store.Load(context.Background()))
	assert.True(t, store.IsLoaded())
	assert.Equal(t, 4, store.TotalItems())
}

func TestStore_Load_FailureStillMarksLoaded(t *testing.T) {
	backend := newMemoryBackend()
	backend.fail(errors.New("unreachable"))

	store := NewStore(backend, nil, zerolog.Nop())
	assert.Error(t, store.Load(context.Background()))

	assert.True(t, store.IsLoaded())
	assert.Empty(t, store.Lines())
	assert.NotEmpty(t, store.Error())
}

func TestStore_ClearCart(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant, eclair), nil)
	require.NoError(t, store.AddToCart(ctx, croissant, 2))
	require.NoError(t, store.AddToCart(ctx, eclair, 1))

	require.NoError(t, store.ClearCart(ctx))

	assert.Empty(t, store.Lines())
	assert.Equal(t, 0.0, store.TotalPrice())
}

func TestStore_Checkout(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant), nil)
	require.NoError(t, store.AddToCart(ctx, croissant, 2))

	resp, err := store.Checkout(ctx)
	require.NoError(t, err)

	assert.Equal(t, model.OrderID("101"), resp.OrderID)
	assert.Equal(t, 200.0, resp.Total)
	assert.Empty(t, store.Lines())
}

func TestStore_LinesWithPricing(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant, eclair), tenPercentOnEclair())
	require.NoError(t, store.AddToCart(ctx, croissant, 2))
	require.NoError(t, store.AddToCart(ctx, eclair, 3))

	priced := store.LinesWithPricing()
	require.Len(t, priced, 2)

	assert.False(t, priced[0].Pricing.HasDiscount)
	assert.Equal(t, 200.0, priced[0].Total)

	assert.True(t, priced[1].Pricing.HasDiscount)
	assert.Equal(t, 45.0, priced[1].Pricing.DiscountedPrice)
	assert.Equal(t, 10, priced[1].Pricing.DiscountPercentage)
	assert.Equal(t, 135.0, priced[1].Total)
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	store := newLoadedStore(t, newMemoryBackend(croissant), nil)
	require.NoError(t, store.AddToCart(ctx, croissant, 1))

	store.Close()

	assert.ErrorIs(t, store.AddToCart(ctx, croissant, 1), model.ErrSessionClosed)
	assert.Equal(t, 1, store.ItemQuantity(croissant.ID))
}

// gatedBackend holds every SetQuantity call until the test releases it with
// the snapshot to return.
type gatedBackend struct {
	*memoryBackend
	pending chan gatedCall
}

type gatedCall struct {
	quantity int
	release  chan []model.CartLine
}

func (b *gatedBackend) SetQuantity(ctx context.Context, productID int64, quantity int) ([]model.CartLine, error) {
	call := gatedCall{quantity: quantity, release: make(chan []model.CartLine)}
	b.pending <- call
	return <-call.release, nil
}

// raceTwoUpdates issues two updates, then delivers the second response
// before the first.
func raceTwoUpdates(t *testing.T, store *Store, backend *gatedBackend) {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = store.UpdateQuantity(ctx, croissant.ID, 1)
	}()
	first := <-backend.pending

	done := make(chan struct{})
	go func() {
		defer wg.Done()
		defer close(done)
		_ = store.UpdateQuantity(ctx, croissant.ID, 2)
	}()
	second := <-backend.pending

	second.release <- []model.CartLine{{Product: croissant, Quantity: second.quantity}}
	<-done
	first.release <- []model.CartLine{{Product: croissant, Quantity: first.quantity}}
	wg.Wait()
}

func TestStore_LastResponseWins(t *testing.T) {
	backend := &gatedBackend{memoryBackend: newMemoryBackend(croissant), pending: make(chan gatedCall)}
	store := newLoadedStore(t, backend, nil)

	raceTwoUpdates(t, store, backend)

	assert.Equal(t, 1, store.ItemQuantity(croissant.ID))
}

func TestStore_StaleResponseGuard(t *testing.T) {
	backend := &gatedBackend{memoryBackend: newMemoryBackend(croissant), pending: make(chan gatedCall)}
	store := newLoadedStore(t, backend, nil, WithStaleResponseGuard())

	raceTwoUpdates(t, store, backend)

	assert.Equal(t, 2, store.ItemQuantity(croissant.ID))
}
