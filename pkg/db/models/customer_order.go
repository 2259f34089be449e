package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supplyline-io/supplyline-backend/pkg/enums"
)

// CustomerOrder is a sales order. TotalAmount is derived from the items and
// recomputed after every item mutation; OrderDate is set once at creation.
type CustomerOrder struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerName  string            `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail string            `gorm:"column:customer_email;not null;index" json:"customer_email"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:pending;index" json:"status"`
	TotalAmount   decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	TrackingToken *string           `gorm:"column:tracking_token" json:"tracking_token,omitempty"`
	OrderDate     time.Time         `gorm:"column:order_date;autoCreateTime" json:"order_date"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID" json:"items"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
