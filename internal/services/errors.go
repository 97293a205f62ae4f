package services

import "errors"

// Sentinel errors surfaced to the HTTP boundary. Handlers translate these to
// user-facing messages; none of them indicates an internal fault.
var (
	// ErrEmptyCart means checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrProductUnavailable means the product cannot currently be purchased.
	ErrProductUnavailable = errors.New("product is not available")
	// ErrForbidden means the caller lacks staff privilege for the operation.
	ErrForbidden = errors.New("staff privilege required")
	// ErrNotOwner means the caller does not own the cart line or order.
	ErrNotOwner = errors.New("resource does not belong to the user")
)
