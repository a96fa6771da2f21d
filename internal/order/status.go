package order

import "sweet-heaven/internal/model"

// NextStatus returns the status after s in the fulfilment chain.
// Delivered and unknown statuses have none.
func NextStatus(s model.OrderStatus) (model.OrderStatus, bool) {
	return s.Next()
}

// CanTransition reports whether an order may move from one status to
// another. Only single forward steps are allowed.
func CanTransition(from, to model.OrderStatus) bool {
	next, ok := from.Next()
	return ok && next == to
}
