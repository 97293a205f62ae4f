package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds a user's current line items. Each user has exactly one cart,
// created lazily on first access.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is a single (product, quantity) line within a cart. A product
// appears at most once per cart. Lines are hard-deleted, so the unique index
// never blocks re-adding a product after checkout cleared the cart.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string    `json:"cart_id" gorm:"uniqueIndex:idx_cart_product;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"uniqueIndex:idx_cart_product;type:varchar(36)"`
	Product   Product   `json:"product"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subtotal is the line's current price times quantity.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums price times quantity over all lines. It is computed on read and
// never persisted; an empty cart totals zero.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	return total
}

// ItemCount is the total quantity across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for i := range c.Items {
		count += c.Items[i].Quantity
	}
	return count
}
