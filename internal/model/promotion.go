package model

import (
	"fmt"
	"time"
)

// Promotion is a percentage discount on a single product, valid inside the
// half-open window [StartDate, EndDate) while IsActive is set.
type Promotion struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Discount    int       `json:"discount"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// InWindow reports whether now falls inside [StartDate, EndDate).
// A window whose end is not after its start contains no instant.
func (p Promotion) InWindow(now time.Time) bool {
	if !p.EndDate.After(p.StartDate) {
		return false
	}
	return !now.Before(p.StartDate) && now.Before(p.EndDate)
}

// Applies reports whether the promotion is active at now.
func (p Promotion) Applies(now time.Time) bool {
	return p.IsActive && p.InWindow(now)
}

// CreatePromotionRequest is the body of POST /promotions.
type CreatePromotionRequest struct {
	ProductID   int64     `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Discount    int       `json:"discount"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `json:"is_active"`
}

// NewCreatePromotionRequest builds a request from calendar days. The start
// day begins at 00:00:00 and the end day runs through 23:59:59.999 in the
// location of the given days.
func NewCreatePromotionRequest(productID int64, name, description string, discount int, startDay, endDay time.Time, active bool) *CreatePromotionRequest {
	return &CreatePromotionRequest{
		ProductID:   productID,
		Name:        name,
		Description: description,
		Discount:    discount,
		StartDate:   StartOfDay(startDay),
		EndDate:     EndOfDay(endDay),
		IsActive:    active,
	}
}

// Validate checks the request before it is sent.
func (r *CreatePromotionRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("promotion request is nil")
	}
	if r.ProductID <= 0 {
		return fmt.Errorf("product ID is required")
	}
	if r.Discount < 1 || r.Discount > 100 {
		return ErrInvalidDiscount
	}
	if !r.EndDate.After(r.StartDate) {
		return ErrInvalidPromotionWindow
	}
	return nil
}

// StartOfDay returns midnight at the start of t's day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
