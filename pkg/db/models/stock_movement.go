package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/supplyline-io/supplyline-backend/pkg/enums"
)

// StockMovement is an immutable, signed quantity-change event. Corrections
// append an offsetting movement; rows are never updated or deleted.
// CreatedAt doubles as the movement date and is assigned at insert time,
// inside the committing transaction, so the audit trail matches commit order.
type StockMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Type        enums.MovementType `gorm:"column:type;not null;index" json:"type"`
	Delta       int                `gorm:"column:delta;not null" json:"delta"`
	ReferenceID *uuid.UUID         `gorm:"column:reference_id;type:uuid;index" json:"reference_id,omitempty"`
	Notes       *string            `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}
