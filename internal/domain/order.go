package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderShipped, OrderCancelled},
	OrderShipped: {OrderDelivered, OrderCancelled},
}

// ParseOrderStatus validates a status name.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return st, true
	}
	return "", false
}

// CanTransition reports whether fulfillment may move an order from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	Name       string `json:"name,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type Order struct {
	ID              string
	UserID          string
	VendorID        *string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Status          OrderStatus
	ShippingAddress ShippingAddress
	CreatedAt       time.Time
}

type OrderItem struct {
	ID        string
	OrderID   string
	Product   ProductRef
	Quantity  int
	UnitPrice decimal.Decimal
	Size      string
	Color     string
}
