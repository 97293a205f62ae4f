package handlers

import (
	"errors"
	"fmt"
	"log"

	"organicbasket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles the conversion of a cart into an order.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// RegisterRoutes registers the checkout route with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
}

// HandleCheckout creates a pending order from the user's cart and tells the
// client where to continue payment: the gateway page or the manual UPI path.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	result, err := h.service.Checkout(c.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Your cart is empty.",
			})
		}
		log.Printf("Error during checkout: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not complete checkout",
			"error":   err.Error(),
		})
	}

	if result.ManualPayment {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "Payment gateway is unavailable. Complete payment using UPI QR.",
			"order":       result.Order,
			"payment":     "upi",
			"payment_url": fmt.Sprintf("/api/v1/orders/%s/upi", result.Order.ID),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":           "Order created. Continue on the payment page.",
		"order":             result.Order,
		"payment":           "gateway",
		"gateway_order_ref": result.Order.GatewayOrderRef,
		"gateway_key_id":    result.GatewayKeyID,
		"amount":            result.AmountMinor,
		"currency":          result.Currency,
	})
}
