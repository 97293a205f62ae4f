package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions is the allowed state machine:
// pending -> paid|cancelled, paid -> processing|cancelled,
// processing -> shipped|cancelled, shipped -> delivered.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows moving to the given status.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// Order is the authoritative record of a checkout. TotalAmount is snapshotted
// at creation time and never recomputed from the lines. The Gateway* fields
// correlate the order with the payment gateway and stay empty on the manual
// UPI path until the buyer submits a reference.
type Order struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID            string          `json:"user_id" gorm:"index;type:varchar(36)"`
	Items             []OrderItem     `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	TotalAmount       decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2)"`
	Status            OrderStatus     `json:"status" gorm:"index;type:varchar(20)"`
	GatewayOrderRef   string          `json:"gateway_order_ref" gorm:"index;type:varchar(200)"`
	GatewayPaymentRef string          `json:"gateway_payment_ref" gorm:"type:varchar(200)"`
	GatewaySignature  string          `json:"gateway_signature" gorm:"type:varchar(200)"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderItem is a frozen copy of a cart line at checkout time. Price is the
// product price at the moment of order creation and never changes afterwards,
// even if the catalog price does.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string          `json:"product_id" gorm:"index;type:varchar(36)"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(8,2)"`
}

// Subtotal is the frozen price times quantity.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
