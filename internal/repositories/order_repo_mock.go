package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"organicbasket/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// When constructed with a MockCartRepository, CreateFromCart clears the
// source cart just like the transactional GORM implementation.
type MockOrderRepository struct {
	orders   map[string]models.Order
	carts    *MockCartRepository
	products *MockProductRepository
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
// carts and products may be nil when the test does not exercise checkout
// or dashboard aggregation.
func NewMockOrderRepository(carts *MockCartRepository, products *MockProductRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[string]models.Order),
		carts:    carts,
		products: products,
	}
}

// GetAll returns all orders.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return &order, nil
}

// GetByUser returns a user's orders, newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// CreateFromCart stores the order and clears the source cart.
func (r *MockOrderRepository) CreateFromCart(order *models.Order, cartID string) error {
	r.mu.Lock()
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	r.mu.Unlock()

	if r.carts != nil {
		return r.carts.ClearItems(cartID)
	}
	return nil
}

// UpdateStatus performs a conditional status transition.
func (r *MockOrderRepository) UpdateStatus(id string, from, to models.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// MarkPaidIfPending conditionally moves a pending order to paid.
func (r *MockOrderRepository) MarkPaidIfPending(id, paymentRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}
	order.Status = models.OrderStatusPaid
	if paymentRef != "" {
		order.GatewayPaymentRef = paymentRef
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// MarkPaidByGatewayRef records a verified gateway payment.
func (r *MockOrderRepository) MarkPaidByGatewayRef(orderRef, paymentRef, signature string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, order := range r.orders {
		if order.GatewayOrderRef == orderRef {
			order.Status = models.OrderStatusPaid
			order.GatewayPaymentRef = paymentRef
			order.GatewaySignature = signature
			order.UpdatedAt = time.Now()
			r.orders[id] = order
			return true, nil
		}
	}
	return false, nil
}

// CancelByGatewayRef cancels any order matching the remote reference.
func (r *MockOrderRepository) CancelByGatewayRef(orderRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, order := range r.orders {
		if order.GatewayOrderRef == orderRef {
			order.Status = models.OrderStatusCancelled
			order.UpdatedAt = time.Now()
			r.orders[id] = order
		}
	}
	return nil
}

// CountAll returns the number of orders.
func (r *MockOrderRepository) CountAll() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.orders)), nil
}

// CountByStatus returns the number of orders per status.
func (r *MockOrderRepository) CountByStatus() (map[models.OrderStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	breakdown := make(map[models.OrderStatus]int64)
	for _, order := range r.orders {
		breakdown[order.Status]++
	}
	return breakdown, nil
}

// RevenueTotal sums total_amount over orders in the given statuses.
func (r *MockOrderRepository) RevenueTotal(statuses []models.OrderStatus) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	included := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		included[s] = true
	}

	total := decimal.Zero
	for _, order := range r.orders {
		if included[order.Status] {
			total = total.Add(order.TotalAmount)
		}
	}
	return total, nil
}

// TopProducts returns the best-selling products by quantity.
func (r *MockOrderRepository) TopProducts(limit int) ([]ProductSales, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byProduct := make(map[string]*ProductSales)
	for _, order := range r.orders {
		for _, item := range order.Items {
			name := item.ProductID
			if r.products != nil {
				if product, err := r.products.GetByID(item.ProductID); err == nil {
					name = product.Name
				}
			}
			sales, ok := byProduct[name]
			if !ok {
				sales = &ProductSales{ProductName: name, Revenue: decimal.Zero}
				byProduct[name] = sales
			}
			sales.TotalQty += int64(item.Quantity)
			sales.Revenue = sales.Revenue.Add(item.Subtotal())
		}
	}

	rows := make([]ProductSales, 0, len(byProduct))
	for _, sales := range byProduct {
		rows = append(rows, *sales)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalQty > rows[j].TotalQty })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// ListByStatus returns up to limit orders in the given status, newest first.
func (r *MockOrderRepository) ListByStatus(status models.OrderStatus, limit int) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orderList []models.Order
	for _, order := range r.orders {
		if order.Status == status {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	if len(orderList) > limit {
		orderList = orderList[:limit]
	}
	return orderList, nil
}
