package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipping  OrderStatus = "shipping"
	StatusDelivered OrderStatus = "delivered"
)

// statusChain is the only path an order may take.
var statusChain = []OrderStatus{StatusPending, StatusConfirmed, StatusShipping, StatusDelivered}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s.index() >= 0
}

// Next returns the status that follows s. Delivered and unknown statuses
// have no successor.
func (s OrderStatus) Next() (OrderStatus, bool) {
	i := s.index()
	if i < 0 || i == len(statusChain)-1 {
		return "", false
	}
	return statusChain[i+1], true
}

func (s OrderStatus) index() int {
	for i, st := range statusChain {
		if st == s {
			return i
		}
	}
	return -1
}

// OrderID identifies an order. The backend emits numeric IDs; older
// payloads used strings, so both are accepted.
type OrderID string

// UnmarshalJSON accepts a JSON string or number.
func (id *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OrderID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid order id %s: %w", data, err)
	}
	*id = OrderID(n.String())
	return nil
}

// MarshalJSON emits numeric IDs as numbers.
func (id OrderID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id OrderID) String() string {
	return string(id)
}

// Order is a snapshot taken at checkout. Item prices are frozen and must
// never be re-derived from the live catalogue or promotions.
type Order struct {
	ID        OrderID     `json:"order_id"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	SlipURL   *string     `json:"public_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// HasSlip reports whether a payment slip has been attached.
func (o Order) HasSlip() bool {
	return o.SlipURL != nil && *o.SlipURL != ""
}

// OrderItem is a line of an order with the price captured at checkout.
type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// UpdateOrderStatusRequest is the body of PUT /order/{id}.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// SlipUploadTarget is returned by POST /order/{id}/upload-slip: the URL to
// PUT the file to, alongside the order itself.
type SlipUploadTarget struct {
	UploadURL string `json:"upload_url"`
	Order
}
