package handlers

import (
	"errors"
	"log"
	"strings"

	"organicbasket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles the manual UPI payment path and the gateway's
// asynchronous verification callback.
type PaymentHandler struct {
	service *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service: service,
	}
}

// RegisterRoutes registers the authenticated payment routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/orders/:id/upi", h.HandleUPIPaymentRequest)
	router.Post("/orders/:id/upi/confirm", h.HandleConfirmManualPayment)
}

// RegisterCallbackRoutes registers the unauthenticated gateway callback.
// Only POST is routed; other methods get a client error.
func (h *PaymentHandler) RegisterCallbackRoutes(app fiber.Router) {
	app.Post("/payment/verify", h.HandleVerifyCallback)
}

// HandleUPIPaymentRequest returns the UPI payment intent and QR URL for an
// order owned by the caller.
func (h *PaymentHandler) HandleUPIPaymentRequest(c *fiber.Ctx) error {
	request, order, err := h.service.GetPaymentRequest(currentUserID(c), c.Params("id"))
	if err != nil {
		return h.orderError(c, err)
	}
	return c.JSON(fiber.Map{
		"order":   order,
		"payment": request,
	})
}

// ConfirmPaymentRequest represents the buyer's manual confirmation body.
type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id"`
}

// HandleConfirmManualPayment records the buyer's self-reported payment.
// Repeated submissions are absorbed and reported as already submitted.
func (h *PaymentHandler) HandleConfirmManualPayment(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		log.Printf("Error parsing payment confirmation body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.TransactionID == "" {
		// Form fallback for the payment screen.
		req.TransactionID = c.FormValue("transaction_id")
	}

	alreadySubmitted, err := h.service.ConfirmManualPayment(currentUserID(c), c.Params("id"), req.TransactionID)
	if err != nil {
		return h.orderError(c, err)
	}
	if alreadySubmitted {
		return c.JSON(fiber.Map{
			"message": "Payment is already submitted for this order.",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Payment submitted. Order confirmed and waiting for approval.",
	})
}

// HandleVerifyCallback handles the gateway's signed confirmation payload.
// It always answers with a structured status and never raises.
func (h *PaymentHandler) HandleVerifyCallback(c *fiber.Ctx) error {
	orderRef := c.FormValue("gateway_order_id")
	paymentRef := c.FormValue("gateway_payment_id")
	signature := c.FormValue("gateway_signature")

	if h.service.VerifyCallback(orderRef, paymentRef, signature) {
		return c.JSON(fiber.Map{"status": "success"})
	}
	return c.JSON(fiber.Map{"status": "failure"})
}

func (h *PaymentHandler) orderError(c *fiber.Ctx, err error) error {
	log.Printf("Payment operation failed: %v", err)
	if errors.Is(err, services.ErrNotOwner) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Order does not belong to you",
		})
	}
	if strings.Contains(err.Error(), "not found") {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Payment operation failed",
		"error":   err.Error(),
	})
}
