package handlers

import (
	"errors"
	"log"
	"strings"

	"organicbasket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:id", h.HandleSetQuantity)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
}

// HandleGetCart returns the user's cart with its derived total.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetOrCreateCart(currentUserID(c))
	if err != nil {
		log.Printf("Error getting cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"cart":       cart,
		"total":      cart.Total(),
		"item_count": cart.ItemCount(),
	})
}

// AddItemRequest represents the request body for adding a cart line.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleAddItem adds a product to the cart, incrementing an existing line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id is required",
		})
	}

	item, err := h.service.AddItem(currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("Error adding item to cart: %v", err)
		if errors.Is(err, services.ErrProductUnavailable) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Product is not available",
			})
		}
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add item to cart",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// SetQuantityRequest represents the request body for updating a cart line.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleSetQuantity updates a line's quantity; zero or less removes it.
func (h *CartHandler) HandleSetQuantity(c *fiber.Ctx) error {
	var req SetQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing set quantity request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.SetQuantity(currentUserID(c), c.Params("id"), req.Quantity); err != nil {
		return h.cartItemError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart updated",
	})
}

// HandleRemoveItem deletes a cart line.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(currentUserID(c), c.Params("id")); err != nil {
		return h.cartItemError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Item removed from cart",
	})
}

func (h *CartHandler) cartItemError(c *fiber.Ctx, err error) error {
	log.Printf("Cart item operation failed: %v", err)
	if errors.Is(err, services.ErrNotOwner) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Cart item does not belong to you",
		})
	}
	if strings.Contains(err.Error(), "not found") {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Cart item not found",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Could not update cart",
		"error":   err.Error(),
	})
}
