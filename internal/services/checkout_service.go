package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"organicbasket/internal/config"
	"organicbasket/internal/gateway"
	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
	"organicbasket/pkg/rabbitmq"
)

const checkoutCurrency = "INR"

var minorUnitFactor = decimal.NewFromInt(100)

// CheckoutResult tells the caller how to continue payment: either a gateway
// payment page (remote reference plus key id) or the manual UPI path.
type CheckoutResult struct {
	Order         *models.Order `json:"order"`
	ManualPayment bool          `json:"manual_payment"`
	GatewayKeyID  string        `json:"gateway_key_id,omitempty"`
	AmountMinor   int64         `json:"amount_minor"`
	Currency      string        `json:"currency"`
}

// CheckoutService converts a cart into an order. It decides between the
// gateway-initiated and manual payment paths and snapshots product prices
// into the order at creation time.
type CheckoutService struct {
	cartRepo  repositories.CartRepository
	orderRepo repositories.OrderRepository
	gateway   gateway.PaymentGateway
	gwConfig  config.GatewayConfig
	mqClient  *rabbitmq.Client
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	cartRepo repositories.CartRepository,
	orderRepo repositories.OrderRepository,
	gw gateway.PaymentGateway,
	gwConfig config.GatewayConfig,
	mqClient *rabbitmq.Client,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		gateway:   gw,
		gwConfig:  gwConfig,
		mqClient:  mqClient,
	}
}

// Checkout converts the user's cart into a pending order. A single
// invocation creates at most one order; the cart is cleared in the same
// transaction that creates the order and its lines.
//
// Any gateway failure (missing credentials, auth or validation rejection,
// timeout) falls back to the manual UPI path rather than failing the buyer.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*CheckoutResult, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	totalAmount := cart.Total()
	amountMinor := totalAmount.Mul(minorUnitFactor).IntPart()

	gatewayOrderRef := ""
	manual := false
	ref, err := s.gateway.CreateOrder(ctx, amountMinor, checkoutCurrency)
	switch {
	case err == nil:
		gatewayOrderRef = ref
	default:
		// Deliberate fallback: the buyer must always have a way to pay.
		log.Printf("Gateway order creation failed for user %s, falling back to manual payment: %v", userID, err)
		manual = true
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		TotalAmount:     totalAmount,
		Status:          models.OrderStatusPending,
		GatewayOrderRef: gatewayOrderRef,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price, // Frozen at order time
		})
	}

	if err := s.orderRepo.CreateFromCart(order, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to create order from cart: %w", err)
	}

	if s.mqClient != nil {
		if err := s.mqClient.PublishOrderEvent("order.created", order); err != nil {
			log.Printf("Warning: Failed to publish order created event for order %s: %v", order.ID, err)
		}
	}

	return &CheckoutResult{
		Order:         order,
		ManualPayment: manual,
		GatewayKeyID:  s.gwConfig.KeyID,
		AmountMinor:   amountMinor,
		Currency:      checkoutCurrency,
	}, nil
}
