package reorder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
)

// Candidate is a product whose available quantity has fallen to or under
// its reorder threshold.
type Candidate struct {
	ProductID         uuid.UUID `gorm:"column:product_id" json:"product_id"`
	SKU               string    `gorm:"column:sku" json:"sku"`
	Name              string    `gorm:"column:name" json:"name"`
	QuantityAvailable int       `gorm:"column:quantity_available" json:"quantity_available"`
	ReorderThreshold  int       `gorm:"column:reorder_threshold" json:"reorder_threshold"`
	Deficit           int       `gorm:"column:deficit" json:"deficit"`
}

// Advisor surfaces products that need replenishment. A threshold of zero
// means the product opted out of reorder advice.
type Advisor interface {
	ListReorderCandidates(ctx context.Context, limit int) ([]Candidate, error)
}

type advisor struct {
	db *gorm.DB
}

// NewAdvisor returns an advisor reading directly from the stock projection.
func NewAdvisor(db *gorm.DB) (Advisor, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &advisor{db: db}, nil
}

// ListReorderCandidates returns the most depleted products first, measured by
// how far below threshold they sit. No caching; every call reads live stock.
func (a *advisor) ListReorderCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	var candidates []Candidate
	err := a.db.WithContext(ctx).Raw(`
		SELECT p.id AS product_id,
			p.sku AS sku,
			p.name AS name,
			s.quantity_available AS quantity_available,
			p.reorder_threshold AS reorder_threshold,
			p.reorder_threshold - s.quantity_available AS deficit
		FROM products p
		JOIN stocks s ON s.product_id = p.id
		WHERE p.reorder_threshold > 0
			AND s.quantity_available <= p.reorder_threshold
		ORDER BY deficit DESC, p.sku ASC
		LIMIT ?
	`, limit).Scan(&candidates).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reorder candidates")
	}
	return candidates, nil
}
