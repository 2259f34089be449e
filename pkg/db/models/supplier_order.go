package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supplyline-io/supplyline-backend/pkg/enums"
)

// SupplierOrder is a replenishment order. Receiving it appends one positive
// supplier_order movement per item and completes the order.
type SupplierOrder struct {
	ID               uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SupplierID       uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null;index" json:"supplier_id"`
	Status           enums.SupplierOrderStatus `gorm:"column:status;not null;default:pending;index" json:"status"`
	TotalAmount      decimal.Decimal           `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	ExpectedDelivery *time.Time                `gorm:"column:expected_delivery" json:"expected_delivery,omitempty"`
	OrderDate        time.Time                 `gorm:"column:order_date;autoCreateTime" json:"order_date"`
	Items            []SupplierOrderItem       `gorm:"foreignKey:SupplierOrderID" json:"items"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
