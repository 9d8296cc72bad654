package domain

import "time"

// Vendor is the storefront tenant that owns products and receives orders.
type Vendor struct {
	ID        string
	Key       string
	Name      string
	CreatedAt time.Time
}
