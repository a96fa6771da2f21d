package promotion

import (
	"slices"
	"strings"
	"time"

	"sweet-heaven/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Engine resolves promotion pricing over a fixed set of promotions.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	promotions []model.Promotion
	now        func() time.Time
}

// PriceDisplay bundles everything needed to render a product price.
type PriceDisplay struct {
	OriginalPrice      float64          `json:"original_price"`
	DiscountedPrice    float64          `json:"discounted_price"`
	HasDiscount        bool             `json:"has_discount"`
	DiscountPercentage int              `json:"discount_percentage"`
	Promotion          *model.Promotion `json:"promotion,omitempty"`
}

// NewEngine creates an engine over a copy of promotions. A nil clock means
// time.Now.
func NewEngine(promotions []model.Promotion, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		promotions: slices.Clone(promotions),
		now:        now,
	}
}

// ActivePromotions returns the promotions that apply at now, in catalog order.
func (e *Engine) ActivePromotions(now time.Time) []model.Promotion {
	active := make([]model.Promotion, 0, len(e.promotions))
	for _, p := range e.promotions {
		if p.Applies(now) {
			active = append(active, p)
		}
	}
	return active
}

// PromotionForProduct returns the winning active promotion for product.
// The highest discount wins; equal discounts go to the lowest promotion ID.
func (e *Engine) PromotionForProduct(product model.Product) (model.Promotion, bool) {
	var (
		best  model.Promotion
		found bool
	)
	for _, p := range e.ActivePromotions(e.now()) {
		if p.ProductID != product.ID {
			continue
		}
		if !found || p.Discount > best.Discount || (p.Discount == best.Discount && p.ID < best.ID) {
			best = p
			found = true
		}
	}
	return best, found
}

// DiscountedPrice returns the unit price of product after its winning
// promotion, rounded half-up to a whole currency unit. Without a promotion
// the catalogue price is returned unchanged.
func (e *Engine) DiscountedPrice(product model.Product) float64 {
	p, ok := e.PromotionForProduct(product)
	if !ok {
		return product.Price
	}
	return applyDiscount(product.Price, p.Discount)
}

// PriceDisplay returns the presentation bundle for product. HasDiscount
// follows the presence of a promotion, not price equality.
func (e *Engine) PriceDisplay(product model.Product) PriceDisplay {
	display := PriceDisplay{
		OriginalPrice:   product.Price,
		DiscountedPrice: product.Price,
	}
	p, ok := e.PromotionForProduct(product)
	if !ok {
		return display
	}
	display.DiscountedPrice = applyDiscount(product.Price, p.Discount)
	display.HasDiscount = true
	display.DiscountPercentage = p.Discount
	display.Promotion = &p
	return display
}

// ActiveAnnouncements returns the descriptions of the currently active
// promotions as written, skipping blank ones.
func (e *Engine) ActiveAnnouncements() []string {
	announcements := []string{}
	for _, p := range e.ActivePromotions(e.now()) {
		if strings.TrimSpace(p.Description) != "" {
			announcements = append(announcements, p.Description)
		}
	}
	return announcements
}

// applyDiscount computes round(price - price*discount/100). The result
// never exceeds price.
func applyDiscount(price float64, discount int) float64 {
	discount = max(0, min(discount, 100))

	original := decimal.NewFromFloat(price)
	off := original.Mul(decimal.NewFromInt(int64(discount))).Div(hundred)
	discounted := original.Sub(off).Round(0)
	if discounted.GreaterThan(original) {
		return price
	}
	return discounted.InexactFloat64()
}
