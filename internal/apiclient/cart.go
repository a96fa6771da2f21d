package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"sweet-heaven/internal/model"
)

// GetCart fetches the current cart.
func (c *Client) GetCart(ctx context.Context) ([]model.CartLine, error) {
	var lines []model.CartLine
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &lines); err != nil {
		return nil, err
	}
	return nonNilLines(lines), nil
}

// SetCartQuantity sets the quantity of one product and returns the whole
// cart. A quantity of zero or less removes the line.
func (c *Client) SetCartQuantity(ctx context.Context, productID int64, quantity int) ([]model.CartLine, error) {
	var lines []model.CartLine
	path := "/cart/" + strconv.FormatInt(productID, 10)
	body := model.SetQuantityRequest{Quantity: quantity}
	if err := c.do(ctx, http.MethodPut, path, nil, body, &lines); err != nil {
		return nil, err
	}
	return nonNilLines(lines), nil
}

// ClearCart removes every line from the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
}

// Checkout converts the cart into an order.
func (c *Client) Checkout(ctx context.Context) (*model.CheckoutResponse, error) {
	var resp model.CheckoutResponse
	if err := c.do(ctx, http.MethodPost, "/cart/checkout", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func nonNilLines(lines []model.CartLine) []model.CartLine {
	if lines == nil {
		return []model.CartLine{}
	}
	return lines
}
