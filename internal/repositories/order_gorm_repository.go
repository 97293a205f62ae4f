package repositories

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"organicbasket/internal/models"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders with their items.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves a user's orders, newest first.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// CreateFromCart persists the order with its items and clears the cart's
// lines in one transaction, so a created order and a non-empty cart can
// never be observed together.
func (r *GORMOrderRepository) CreateFromCart(order *models.Order, cartID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Delete(&models.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
			return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("checkout transaction failed: %w", err)
	}
	return nil
}

// UpdateStatus performs a conditional status transition. The WHERE clause on
// the current status makes the check-then-set atomic relative to other
// writers; a lost race simply reports zero rows.
func (r *GORMOrderRepository) UpdateStatus(id string, from, to models.OrderStatus) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkPaidIfPending conditionally moves a pending order to paid, recording
// the buyer-submitted reference when non-empty.
func (r *GORMOrderRepository) MarkPaidIfPending(id, paymentRef string) (bool, error) {
	updates := map[string]any{
		"status":     models.OrderStatusPaid,
		"updated_at": time.Now(),
	}
	if paymentRef != "" {
		updates["gateway_payment_ref"] = paymentRef
	}
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkPaidByGatewayRef records a verified gateway payment on the order
// matching the remote reference.
func (r *GORMOrderRepository) MarkPaidByGatewayRef(orderRef, paymentRef, signature string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("gateway_order_ref = ?", orderRef).
		Updates(map[string]any{
			"status":              models.OrderStatusPaid,
			"gateway_payment_ref": paymentRef,
			"gateway_signature":   signature,
			"updated_at":          time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order paid by gateway ref %s: %w", orderRef, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CancelByGatewayRef cancels any order matching the remote reference.
func (r *GORMOrderRepository) CancelByGatewayRef(orderRef string) error {
	err := r.db.Model(&models.Order{}).
		Where("gateway_order_ref = ?", orderRef).
		Updates(map[string]any{"status": models.OrderStatusCancelled, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("failed to cancel order by gateway ref %s: %w", orderRef, err)
	}
	return nil
}

// CountAll returns the number of orders.
func (r *GORMOrderRepository) CountAll() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of orders per status.
func (r *GORMOrderRepository) CountByStatus() (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	err := r.db.Model(&models.Order{}).
		Select("status, COUNT(id) AS count").
		Group("status").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	breakdown := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		breakdown[row.Status] = row.Count
	}
	return breakdown, nil
}

// RevenueTotal sums total_amount over orders in the given statuses.
func (r *GORMOrderRepository) RevenueTotal(statuses []models.OrderStatus) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := r.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status IN ?", statuses).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return row.Total, nil
}

// TopProducts returns the best-selling products by quantity.
func (r *GORMOrderRepository) TopProducts(limit int) ([]ProductSales, error) {
	var rows []ProductSales
	err := r.db.Model(&models.OrderItem{}).
		Select("products.name AS product_name, SUM(order_items.quantity) AS total_qty, SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Group("products.name").
		Order("total_qty DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top products: %w", err)
	}
	return rows, nil
}

// ListByStatus returns up to limit orders in the given status, newest first.
func (r *GORMOrderRepository) ListByStatus(status models.OrderStatus, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("status = ?", status).
		Order("created_at DESC").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders with status %s: %w", status, err)
	}
	return orders, nil
}
