package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a replenishment source.
type Supplier struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"column:name;not null" json:"name"`
	ContactPerson *string   `gorm:"column:contact_person" json:"contact_person,omitempty"`
	Email         string    `gorm:"column:email;not null" json:"email"`
	Phone         *string   `gorm:"column:phone" json:"phone,omitempty"`
	Address       *string   `gorm:"column:address" json:"address,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
