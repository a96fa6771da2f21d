package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"sweet-heaven/internal/model"
)

// ListProducts lists or searches the catalogue. An empty query lists
// everything; simple asks the API to omit images.
func (c *Client) ListProducts(ctx context.Context, query string, simple bool) ([]model.Product, error) {
	params := url.Values{}
	if q := strings.TrimSpace(query); q != "" {
		params.Set("q", q)
	}
	if simple {
		params.Set("simple", "true")
	}

	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products", params, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// TopProducts fetches the server-side best-seller report.
func (c *Client) TopProducts(ctx context.Context, period string, limit int) ([]model.TopProduct, error) {
	params := url.Values{}
	if period != "" {
		params.Set("period", period)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var rows []model.TopProduct
	if err := c.do(ctx, http.MethodGet, "/reports/products/top", params, nil, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.TopProduct{}
	}
	return rows, nil
}
