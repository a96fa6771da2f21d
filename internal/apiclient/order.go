package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"sweet-heaven/internal/model"
)

// ListOrders fetches every order visible to the caller.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/order", nil, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// GetOrder fetches a single order.
func (c *Client) GetOrder(ctx context.Context, id model.OrderID) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, http.MethodGet, orderPath(id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus sets the status of an order and returns the updated order.
func (c *Client) UpdateOrderStatus(ctx context.Context, id model.OrderID, status model.OrderStatus) (*model.Order, error) {
	var order model.Order
	body := model.UpdateOrderStatusRequest{Status: status}
	if err := c.do(ctx, http.MethodPut, orderPath(id), nil, body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder deletes an order.
func (c *Client) DeleteOrder(ctx context.Context, id model.OrderID) error {
	return c.do(ctx, http.MethodDelete, orderPath(id), nil, nil, nil)
}

// RequestSlipUpload asks the API where to upload the payment slip of an order.
func (c *Client) RequestSlipUpload(ctx context.Context, id model.OrderID) (*model.SlipUploadTarget, error) {
	var target model.SlipUploadTarget
	if err := c.do(ctx, http.MethodPost, orderPath(id)+"/upload-slip", nil, nil, &target); err != nil {
		return nil, err
	}
	if target.UploadURL == "" {
		return nil, fmt.Errorf("upload-slip response for order %s has no upload_url", id)
	}
	return &target, nil
}

// UploadFile PUTs raw bytes to an absolute upload URL issued by the API.
// No API credentials are attached.
func (c *Client) UploadFile(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	u, err := url.Parse(uploadURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("invalid upload URL: %q", uploadURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := c.upload.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func orderPath(id model.OrderID) string {
	return "/order/" + url.PathEscape(id.String())
}
