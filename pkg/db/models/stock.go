package models

import (
	"time"

	"github.com/google/uuid"
)

// Stock is the cached current-quantity projection per product. It is owned by
// the stock ledger and only ever updated together with a movement row; the
// movement history is the source of truth.
type Stock struct {
	ProductID         uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
	QuantityAvailable int       `gorm:"column:quantity_available;not null;default:0" json:"quantity_available"`
	LastUpdated       time.Time `gorm:"column:last_updated;autoUpdateTime" json:"last_updated"`
}
