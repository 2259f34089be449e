package stockledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	"github.com/supplyline-io/supplyline-backend/pkg/pagination"
)

// MovementFilter narrows movement history queries. Nil fields are ignored.
type MovementFilter struct {
	ProductID   *uuid.UUID
	Type        *enums.MovementType
	ReferenceID *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// Repository manages persistence for stock rows and the movement log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	CreateStock(ctx context.Context, stock *models.Stock) error
	// AdjustStock applies delta to the product's quantity only when the
	// result stays non-negative. Returns false when the guard rejects the
	// update or no stock row exists.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (bool, error)
	GetStock(ctx context.Context, productID uuid.UUID) (*models.Stock, error)
	ListOutOfStock(ctx context.Context) ([]models.Stock, error)
	ListMovements(ctx context.Context, filter MovementFilter, params pagination.Params) ([]models.StockMovement, string, error)
	ListByReference(ctx context.Context, referenceID uuid.UUID, movementType enums.MovementType) ([]models.StockMovement, error)
	SumDeltas(ctx context.Context, productID uuid.UUID) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) CreateStock(ctx context.Context, stock *models.Stock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *repository) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stocks
		SET quantity_available = quantity_available + ?,
			last_updated = CURRENT_TIMESTAMP
		WHERE product_id = ? AND quantity_available + ? >= 0
	`, delta, productID, delta)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) GetStock(ctx context.Context, productID uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	if err := r.db.WithContext(ctx).First(&stock, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *repository) ListOutOfStock(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := r.db.WithContext(ctx).
		Where("quantity_available = 0").
		Order("last_updated DESC").
		Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter, params pagination.Params) ([]models.StockMovement, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var movements []models.StockMovement
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&movements).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(movements) > limit {
		movements = movements[:limit]
		last := movements[len(movements)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return movements, nextCursor, nil
}

func (r *repository) ListByReference(ctx context.Context, referenceID uuid.UUID, movementType enums.MovementType) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_id = ? AND type = ?", referenceID, movementType).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) SumDeltas(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Select("COALESCE(SUM(delta), 0)").
		Where("product_id = ?", productID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
