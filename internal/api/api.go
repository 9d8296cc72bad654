// Package api holds the JSON shapes exchanged between the storefront API
// and its clients. Money travels as decimal strings with two places.
package api

import "time"

// Route roots. Every route is also served under Prefix.
const (
	Prefix         = "/api"
	CartCollection = "/cart-collection"
	Orders         = "/orders"
	Products       = "/products"
	Auth           = "/auth"
)

// SessionCookie is the name of the session cookie set on sign-in.
const SessionCookie = "univendor.sid"

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	ImageURL string `json:"imageUrl"`
}

type CartItem struct {
	ID       string     `json:"id"`
	Product  ProductRef `json:"product"`
	Size     string     `json:"size,omitempty"`
	Color    string     `json:"color,omitempty"`
	Quantity int        `json:"quantity"`
}

type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type Product struct {
	ID          string   `json:"id"`
	VendorID    string   `json:"vendorId"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price"`
	ImageURL    string   `json:"imageUrl"`
	Sizes       []string `json:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty"`
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

type PlaceOrderRequest struct {
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

type OrderItem struct {
	Product   ProductRef `json:"product"`
	Quantity  int        `json:"quantity"`
	UnitPrice string     `json:"unitPrice"`
	Size      string     `json:"size,omitempty"`
	Color     string     `json:"color,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	Items           []OrderItem     `json:"items"`
	Subtotal        string          `json:"subtotal"`
	Shipping        string          `json:"shipping"`
	Tax             string          `json:"tax"`
	Total           string          `json:"total"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	VendorID        *string         `json:"vendorId"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type User struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Phone           string  `json:"phone,omitempty"`
	Role            string  `json:"role"`
	VendorID        *string `json:"vendorId,omitempty"`
	IsImpersonating bool    `json:"isImpersonating,omitempty"`
	OriginalUser    *User   `json:"originalUser,omitempty"`
}

// ImpersonationResponse is returned when an admin starts or stops acting
// as another user. User is who subsequent requests run as.
type ImpersonationResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

// AuthResponse answers every sign-in step. RequiresRegistration is set by
// verify-otp for an unknown email; User and RedirectTo are empty then.
type AuthResponse struct {
	User                 *User  `json:"user,omitempty"`
	RedirectTo           string `json:"redirectTo,omitempty"`
	RequiresRegistration bool   `json:"requiresRegistration,omitempty"`
}
