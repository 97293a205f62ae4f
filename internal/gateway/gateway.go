package gateway

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured means no gateway credentials are present. Checkout
	// treats this as a signal to fall back to the manual payment path.
	ErrNotConfigured = errors.New("payment gateway is not configured")
	// ErrAuthFailed means the gateway rejected our credentials or request.
	ErrAuthFailed = errors.New("payment gateway authentication failed")
)

// PaymentGateway is the contract the checkout core expects from an external
// payment provider: create a remote payment intent for an amount, and check
// a signed confirmation payload.
type PaymentGateway interface {
	// CreateOrder registers a payment intent for the given amount in minor
	// currency units and returns the remote order reference.
	CreateOrder(ctx context.Context, amountMinor int64, currency string) (string, error)
	// VerifySignature reports whether the signature is valid for the given
	// order and payment references.
	VerifySignature(orderRef, paymentRef, signature string) bool
}
