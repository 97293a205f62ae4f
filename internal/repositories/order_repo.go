package repositories

import (
	"github.com/shopspring/decimal"

	"organicbasket/internal/models"
)

// ProductSales is an aggregate row for the dashboard's top-products report.
type ProductSales struct {
	ProductName string          `json:"product_name"`
	TotalQty    int64           `json:"total_qty"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// OrderRepository defines the interface for order data access. Orders are
// append-mostly: lines are created once at checkout and never mutated, and
// status changes go through conditional updates so concurrent confirmation
// attempts cannot both fire.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	// CreateFromCart persists the order with its items and clears the cart's
	// lines in a single transaction. Either all of it is visible or none.
	CreateFromCart(order *models.Order, cartID string) error
	// UpdateStatus transitions the order from one status to another only if
	// it is currently in the from status. Returns whether a row changed.
	UpdateStatus(id string, from, to models.OrderStatus) (bool, error)
	// MarkPaidIfPending is the manual-confirmation write: a conditional
	// pending->paid set that also records the buyer-submitted reference when
	// non-empty. Returns false when the order was no longer pending.
	MarkPaidIfPending(id, paymentRef string) (bool, error)
	// MarkPaidByGatewayRef is the gateway-verification success write: sets
	// status paid and stores payment reference and signature on the order
	// matching the remote reference. Returns whether such an order exists.
	MarkPaidByGatewayRef(orderRef, paymentRef, signature string) (bool, error)
	// CancelByGatewayRef cancels any order matching the remote reference.
	// A missing order is not an error.
	CancelByGatewayRef(orderRef string) error

	// Dashboard aggregates.
	CountAll() (int64, error)
	CountByStatus() (map[models.OrderStatus]int64, error)
	RevenueTotal(statuses []models.OrderStatus) (decimal.Decimal, error)
	TopProducts(limit int) ([]ProductSales, error)
	ListByStatus(status models.OrderStatus, limit int) ([]models.Order, error)
}
