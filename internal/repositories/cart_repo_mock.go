package repositories

import (
	"fmt"
	"sync"

	"organicbasket/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
// It hydrates item products from the given product repository, mirroring
// the GORM implementation's preloads.
type MockCartRepository struct {
	carts    map[string]models.Cart     // keyed by cart ID
	byUser   map[string]string          // user ID -> cart ID
	items    map[string]models.CartItem // keyed by item ID
	products *MockProductRepository
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository(products *MockProductRepository) *MockCartRepository {
	return &MockCartRepository{
		carts:    make(map[string]models.Cart),
		byUser:   make(map[string]string),
		items:    make(map[string]models.CartItem),
		products: products,
	}
}

func (r *MockCartRepository) hydrate(item models.CartItem) models.CartItem {
	if r.products != nil {
		if product, err := r.products.GetByID(item.ProductID); err == nil {
			item.Product = *product
		}
	}
	return item
}

// GetOrCreateByUser returns the user's cart with its lines, creating an
// empty cart on first access.
func (r *MockCartRepository) GetOrCreateByUser(userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cartID, ok := r.byUser[userID]
	if !ok {
		cart := models.Cart{ID: uuid.New().String(), UserID: userID}
		r.carts[cart.ID] = cart
		r.byUser[userID] = cart.ID
		cartID = cart.ID
	}

	cart := r.carts[cartID]
	cart.Items = nil
	for _, item := range r.items {
		if item.CartID == cartID {
			cart.Items = append(cart.Items, r.hydrate(item))
		}
	}
	return &cart, nil
}

// GetItem returns a cart line by its ID.
func (r *MockCartRepository) GetItem(itemID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, fmt.Errorf("cart item with ID %s not found", itemID)
	}
	item = r.hydrate(item)
	return &item, nil
}

// GetItemByProduct returns the cart's line for a product, or nil if absent.
func (r *MockCartRepository) GetItemByProduct(cartID, productID string) (*models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.CartID == cartID && item.ProductID == productID {
			item = r.hydrate(item)
			return &item, nil
		}
	}
	return nil, nil
}

// CreateItem adds a new line to a cart.
func (r *MockCartRepository) CreateItem(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[item.ID] = *item
	return nil
}

// UpdateItemQuantity sets the quantity of an existing line.
func (r *MockCartRepository) UpdateItemQuantity(itemID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return fmt.Errorf("cart item with ID %s not found for update", itemID)
	}
	item.Quantity = quantity
	r.items[itemID] = item
	return nil
}

// RemoveItem deletes a line unconditionally.
func (r *MockCartRepository) RemoveItem(itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[itemID]; !ok {
		return fmt.Errorf("cart item with ID %s not found for removal", itemID)
	}
	delete(r.items, itemID)
	return nil
}

// ClearItems removes every line from the cart.
func (r *MockCartRepository) ClearItems(cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
		}
	}
	return nil
}
