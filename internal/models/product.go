package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store catalog.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description string          `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(8,2)"`
	Category    string          `json:"category" validate:"required,oneof=fruit vegetable"`
	CategoryID  *string         `json:"category_id,omitempty" gorm:"type:varchar(36)"` // Optional subcategory
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	IsFeatured  bool            `json:"is_featured"`
	IsAvailable bool            `json:"is_available"`
	// Legacy active flag kept for backwards compatibility with older catalog data.
	IsActive   bool `json:"is_active"`
	gorm.Model      // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Purchasable reports whether the product may currently be added to a cart.
func (p *Product) Purchasable() bool {
	return p.IsAvailable && p.IsActive
}
