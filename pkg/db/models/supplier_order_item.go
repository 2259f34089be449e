package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierOrderItem is a replenishment order line.
type SupplierOrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SupplierOrderID uuid.UUID       `gorm:"column:supplier_order_id;type:uuid;not null;uniqueIndex:idx_supplier_order_items_order_product" json:"supplier_order_id"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_supplier_order_items_order_product" json:"product_id"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
