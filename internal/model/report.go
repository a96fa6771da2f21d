package model

// TopProduct is one row of the best-seller report.
type TopProduct struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// HourlySales aggregates orders created within one hour of a day.
type HourlySales struct {
	Hour   string  `json:"hour"`
	Total  float64 `json:"total"`
	Orders int     `json:"orders"`
}

// SalesSummary aggregates a set of orders.
type SalesSummary struct {
	Orders   int                 `json:"orders"`
	Revenue  float64             `json:"revenue"`
	ByStatus map[OrderStatus]int `json:"by_status"`
}

// DailySales aggregates orders created on one calendar day.
type DailySales struct {
	Date   string  `json:"date"`
	Total  float64 `json:"total"`
	Orders int     `json:"orders"`
}
