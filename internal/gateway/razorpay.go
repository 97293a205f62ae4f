package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"organicbasket/internal/config"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayGateway talks to the Razorpay orders API. Order creation is an
// outbound HTTP call with a bounded timeout; signature verification is a
// local HMAC check and never touches the network.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	client    *resty.Client
}

// NewRazorpayGateway creates a gateway adapter from explicit configuration.
func NewRazorpayGateway(cfg config.GatewayConfig) *RazorpayGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(razorpayBaseURL).
		SetTimeout(timeout).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RazorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    client,
	}
}

// Configured reports whether credentials are present.
func (g *RazorpayGateway) Configured() bool {
	return g.keyID != "" && g.keySecret != ""
}

// CreateOrder registers a remote order with immediate payment capture and
// returns Razorpay's order id.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency string) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}

	body := map[string]any{
		"amount":          amountMinor,
		"currency":        currency,
		"payment_capture": 1,
	}

	var result struct {
		ID string `json:"id"`
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/orders")
	if err != nil {
		return "", fmt.Errorf("razorpay order request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == 200:
		if result.ID == "" {
			return "", fmt.Errorf("razorpay order response missing id: %s", resp.String())
		}
		return result.ID, nil
	case resp.StatusCode() == 400 || resp.StatusCode() == 401:
		return "", fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode())
	default:
		return "", fmt.Errorf("razorpay order creation failed with status %d: %s", resp.StatusCode(), resp.String())
	}
}

// VerifySignature checks the HMAC-SHA256 signature Razorpay sends on payment
// completion: hex(HMAC(key_secret, "order_ref|payment_ref")).
func (g *RazorpayGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	if !g.Configured() || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
