package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry the ledger and orders reference. Price and
// reorder threshold are maintained by the catalog; the core never mutates
// them.
type Product struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SKU              string          `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Name             string          `gorm:"column:name;not null" json:"name"`
	Description      *string         `gorm:"column:description" json:"description,omitempty"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	ReorderThreshold int             `gorm:"column:reorder_threshold;not null;default:0" json:"reorder_threshold"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
