package model

// Product represents a bakery product in the catalogue.
// The catalogue is owned by the backend; the storefront core only reads it.
type Product struct {
	ID       int64    `json:"id" db:"id"`
	Name     string   `json:"name" db:"name"`
	Price    float64  `json:"price" db:"price"`
	Category string   `json:"category" db:"category"`
	Detail   string   `json:"detail,omitempty" db:"detail"`
	Images   []string `json:"images,omitempty" db:"images"`
	Stock    int      `json:"stock" db:"stock"`
}
