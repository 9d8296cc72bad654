package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a user's server-side cart. Lines are unique per
// (UserID, ProductID, Size, Color).
type CartItem struct {
	ID        string
	UserID    string
	ProductID string
	Size      string
	Color     string
	Quantity  int
	Product   ProductRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductRef is the product summary embedded in cart and order lines.
type ProductRef struct {
	ID       string
	VendorID string
	Name     string
	Price    decimal.Decimal
	ImageURL string
}
