package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"organicbasket/internal/models"
	"organicbasket/internal/repositories"
)

// CartService handles business logic for the per-user shopping cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetOrCreateCart returns the user's cart, creating an empty one on first
// access. Idempotent.
func (s *CartService) GetOrCreateCart(userID string) (*models.Cart, error) {
	return s.cartRepo.GetOrCreateByUser(userID)
}

// AddItem adds quantity of a product to the user's cart, incrementing the
// existing line if one exists. The product must currently be purchasable.
func (s *CartService) AddItem(userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, fmt.Errorf("product %s not found: %w", productID, err)
	}
	if !product.Purchasable() {
		return nil, fmt.Errorf("product %s: %w", product.Name, ErrProductUnavailable)
	}

	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.GetItemByProduct(cart.ID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.cartRepo.UpdateItemQuantity(existing.ID, existing.Quantity+quantity); err != nil {
			return nil, err
		}
		existing.Quantity += quantity
		return existing, nil
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Product:   *product,
		Quantity:  quantity,
	}
	if err := s.cartRepo.CreateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetQuantity sets a line's quantity; a quantity of zero or less deletes the
// line, so no negative-quantity state is ever observable.
func (s *CartService) SetQuantity(userID, itemID string, quantity int) error {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		return s.cartRepo.RemoveItem(item.ID)
	}
	return s.cartRepo.UpdateItemQuantity(item.ID, quantity)
}

// RemoveItem deletes a line unconditionally.
func (s *CartService) RemoveItem(userID, itemID string) error {
	item, err := s.ownedItem(userID, itemID)
	if err != nil {
		return err
	}
	return s.cartRepo.RemoveItem(item.ID)
}

// Total returns the cart's derived total; zero for an empty cart.
func (s *CartService) Total(userID string) (decimal.Decimal, error) {
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Total(), nil
}

// ownedItem fetches a cart line and checks it belongs to the user's cart.
func (s *CartService) ownedItem(userID, itemID string) (*models.CartItem, error) {
	item, err := s.cartRepo.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	cart, err := s.cartRepo.GetOrCreateByUser(userID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, fmt.Errorf("cart item %s: %w", itemID, ErrNotOwner)
	}
	return item, nil
}
