package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmptyCart is returned when checking out a cart without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition indicates an order status change that fulfillment does not allow.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrForbidden indicates the caller lacks the role for an operation.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries a client-facing message for rejected input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a ValidationError.
func Invalid(msg string) error { return &ValidationError{Msg: msg} }
