package catalog

import (
	"time"
)

// Product represents a stock item tracked by the catalog.
type Product struct {
	ID          string     `json:"id"`
	SKU         string     `json:"sku"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Unit        string     `json:"unit"`
	Quantity    int64      `json:"quantity"`
	MinStock    *int64     `json:"min_stock,omitempty"`
	Location    string     `json:"location,omitempty"`
	Supplier    string     `json:"supplier,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
