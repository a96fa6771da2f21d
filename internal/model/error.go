package model

// ErrorResponse is the error body returned by the storefront API.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Error codes shared by domain errors.
const (
	ErrCodeInvalidQuantity         = "INVALID_QUANTITY"
	ErrCodeInvalidDiscount         = "INVALID_DISCOUNT"
	ErrCodeInvalidPromotionWindow  = "INVALID_PROMOTION_WINDOW"
	ErrCodeProductNotFound         = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeNoNextStatus            = "NO_NEXT_STATUS"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeCheckoutUnavailable     = "CHECKOUT_UNAVAILABLE"
	ErrCodeEmptySlip               = "EMPTY_SLIP"
	ErrCodeSessionClosed           = "SESSION_CLOSED"
)

// DomainError is a business rule violation detected client-side.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

var (
	ErrInvalidQuantity         = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be positive")
	ErrInvalidDiscount         = NewDomainError(ErrCodeInvalidDiscount, "Discount must be between 1 and 100 percent")
	ErrInvalidPromotionWindow  = NewDomainError(ErrCodeInvalidPromotionWindow, "Promotion must end after it starts")
	ErrProductNotFound         = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound           = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrNoNextStatus            = NewDomainError(ErrCodeNoNextStatus, "Order has already been delivered")
	ErrInvalidStatusTransition = NewDomainError(ErrCodeInvalidStatusTransition, "Cannot skip status steps")
	ErrCheckoutUnavailable     = NewDomainError(ErrCodeCheckoutUnavailable, "Checkout requires the storefront API")
	ErrEmptySlip               = NewDomainError(ErrCodeEmptySlip, "Payment slip file is empty")
	ErrSessionClosed           = NewDomainError(ErrCodeSessionClosed, "Session has been closed")
)
