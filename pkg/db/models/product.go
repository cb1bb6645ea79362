package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
)

// Product represents a vendor listing buyers can add to a cart.
type Product struct {
	ID        string            `gorm:"column:id;type:text;primaryKey"`
	SKU       string            `gorm:"column:sku;not null"`
	Name      string            `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal   `gorm:"column:unit_price;type:numeric(14,4);not null"`
	MOQ       int               `gorm:"column:moq;not null;default:1"`
	Unit      enums.ProductUnit `gorm:"column:unit;type:text;not null"`
	IsActive  bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
