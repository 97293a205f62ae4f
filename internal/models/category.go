package models

import "gorm.io/gorm"

// Category is a product subcategory, e.g. "Common fruits" or "Leafy vegetables".
// Kind is the high-level grouping the subcategory belongs to.
type Category struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string `json:"name" gorm:"uniqueIndex:idx_category_name_kind;type:varchar(100)" validate:"required,max=100"`
	Kind       string `json:"kind" gorm:"uniqueIndex:idx_category_name_kind;type:varchar(20)" validate:"required,oneof=fruit vegetable"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
