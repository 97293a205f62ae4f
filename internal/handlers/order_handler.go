package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"organicbasket/internal/models"
	"organicbasket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for order tracking and the staff
// approval workflow.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the buyer-facing order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// RegisterStaffRoutes registers approval and fulfillment routes.
func (h *OrderHandler) RegisterStaffRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/:id/approve", h.HandleApproveOrder)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
	router.Get("/dashboard", h.HandleDashboard)
}

// HandleGetOrders retrieves the caller's orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersForUser(currentUserID(c))
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order owned by the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderForUser(currentUserID(c), orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		if errors.Is(err, services.ErrNotOwner) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Order does not belong to you",
			})
		}
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleApproveOrder moves a paid order to processing. Orders in any other
// status are reported as not awaiting approval without being touched.
func (h *OrderHandler) HandleApproveOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	notAwaiting, err := h.service.Approve(orderID, currentUser(c))
	if err != nil {
		log.Printf("Error approving order %s: %v", orderID, err)
		if errors.Is(err, services.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Staff privilege required",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not approve order",
			"error":   err.Error(),
		})
	}
	if notAwaiting {
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Order %s is not waiting for approval", orderID),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s approved", orderID),
	})
}

// HandleUpdateOrderStatus is the staff tooling for transitions outside the
// payment core (shipped, delivered).
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update.",
		})
	}

	err := h.service.UpdateStatus(orderID, models.OrderStatus(updateData.Status), currentUser(c))
	if err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		if errors.Is(err, services.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Staff privilege required",
			})
		}
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "cannot move") ||
			strings.Contains(err.Error(), "invalid order status") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": fmt.Sprintf("Order update failed: %v", err.Error()),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update order status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, updateData.Status),
	})
}

// HandleDashboard returns the staff revenue and approval report.
func (h *OrderHandler) HandleDashboard(c *fiber.Ctx) error {
	report, err := h.service.Dashboard()
	if err != nil {
		log.Printf("Error building dashboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not build dashboard",
			"error":   err.Error(),
		})
	}
	return c.JSON(report)
}
