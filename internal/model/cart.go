package model

// CartLine is one product and its quantity in the shopper's cart.
// Lines carry the live product, never a frozen price.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns the undiscounted price of the line.
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// CheckoutResponse is returned by POST /cart/checkout.
type CheckoutResponse struct {
	Message string      `json:"message,omitempty"`
	OrderID OrderID     `json:"order_id"`
	Total   float64     `json:"total"`
	Status  OrderStatus `json:"status,omitempty"`
}

// SetQuantityRequest is the body of PUT /cart/{productId}.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}
