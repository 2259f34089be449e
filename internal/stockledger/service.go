package stockledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/pkg/db"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/metrics"
	"github.com/supplyline-io/supplyline-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
}

// MovementInput describes one signed quantity change to append.
type MovementInput struct {
	ProductID   uuid.UUID
	Type        enums.MovementType
	Delta       int
	ReferenceID *uuid.UUID
	Notes       *string
}

// AdjustmentInput captures a manual stock correction.
type AdjustmentInput struct {
	ProductID uuid.UUID
	Delta     int
	Notes     *string
}

// Service is the stock ledger: an append-only movement log plus the cached
// quantity projection it maintains. Writes either commit movement and
// projection together or not at all.
type Service interface {
	ApplyMovement(ctx context.Context, input MovementInput) (*models.StockMovement, error)
	// ApplyMovements commits the whole batch or none of it. One product
	// short on stock rejects every movement in the batch.
	ApplyMovements(ctx context.Context, inputs []MovementInput) ([]models.StockMovement, error)
	// ApplyMovementsInTx runs the batch inside a caller-owned transaction
	// so order state and stock changes can commit atomically.
	ApplyMovementsInTx(ctx context.Context, tx *gorm.DB, inputs []MovementInput) ([]models.StockMovement, error)
	CreateAdjustment(ctx context.Context, input AdjustmentInput) (*models.StockMovement, error)
	GetStock(ctx context.Context, productID uuid.UUID) (*models.Stock, error)
	GetStockBySKU(ctx context.Context, sku string) (*models.Stock, error)
	ListMovements(ctx context.Context, filter MovementFilter, params pagination.Params) ([]models.StockMovement, string, error)
	ListOutOfStock(ctx context.Context) ([]models.Stock, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	products productLookup
	metrics  *metrics.LedgerMetrics
}

// NewService wires a stock ledger service with the required dependencies.
// Metrics may be nil.
func NewService(repo Repository, tx txRunner, products productLookup, m *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, tx: tx, products: products, metrics: m}, nil
}

func (s *service) ApplyMovement(ctx context.Context, input MovementInput) (*models.StockMovement, error) {
	movements, err := s.ApplyMovements(ctx, []MovementInput{input})
	if err != nil {
		return nil, err
	}
	return &movements[0], nil
}

func (s *service) ApplyMovements(ctx context.Context, inputs []MovementInput) ([]models.StockMovement, error) {
	start := time.Now()
	var movements []models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var terr error
		movements, terr = s.ApplyMovementsInTx(ctx, tx, inputs)
		return terr
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			s.metrics.IncStockRefusal()
		}
		return nil, err
	}
	for _, m := range movements {
		s.metrics.IncMovementApplied(m.Type.String())
		s.metrics.ObserveApplyDuration(m.Type.String(), time.Since(start))
	}
	return movements, nil
}

func (s *service) ApplyMovementsInTx(ctx context.Context, tx *gorm.DB, inputs []MovementInput) ([]models.StockMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required to apply movements")
	}
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one movement required")
	}
	for _, input := range inputs {
		if err := validateMovement(input); err != nil {
			return nil, err
		}
	}

	repo := s.repo.WithTx(tx)
	movements := make([]models.StockMovement, 0, len(inputs))
	for _, input := range inputs {
		ok, err := repo.AdjustStock(ctx, input.ProductID, input.Delta)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
		}
		if !ok {
			stock, err := repo.GetStock(ctx, input.ProductID)
			switch {
			case err == gorm.ErrRecordNotFound:
				// stock row is created on the first movement for a product
				if err := s.createStockRow(ctx, repo, input); err != nil {
					return nil, err
				}
			case err != nil:
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
			default:
				return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
					WithDetails(map[string]any{
						"product_id": input.ProductID,
						"requested":  -input.Delta,
						"available":  stock.QuantityAvailable,
					})
			}
		}

		movement := models.StockMovement{
			ID:          uuid.New(),
			ProductID:   input.ProductID,
			Type:        input.Type,
			Delta:       input.Delta,
			ReferenceID: input.ReferenceID,
			Notes:       input.Notes,
		}
		if err := repo.CreateMovement(ctx, &movement); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append movement")
		}
		movements = append(movements, movement)
	}
	return movements, nil
}

// createStockRow backs the lazy first-movement path: the product must exist,
// and a negative opening movement is an insufficiency against zero stock.
func (s *service) createStockRow(ctx context.Context, repo Repository, input MovementInput) error {
	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": input.ProductID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if input.Delta < 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": input.ProductID,
				"requested":  -input.Delta,
				"available":  0,
			})
	}
	err := repo.CreateStock(ctx, &models.Stock{
		ProductID:         input.ProductID,
		QuantityAvailable: input.Delta,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "stock row was created concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock row")
	}
	return nil
}

func (s *service) CreateAdjustment(ctx context.Context, input AdjustmentInput) (*models.StockMovement, error) {
	notes := input.Notes
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment requires a note")
	}
	return s.ApplyMovement(ctx, MovementInput{
		ProductID: input.ProductID,
		Type:      enums.MovementTypeAdjustment,
		Delta:     input.Delta,
		Notes:     notes,
	})
}

func (s *service) GetStock(ctx context.Context, productID uuid.UUID) (*models.Stock, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	stock, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no stock record for product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return stock, nil
}

func (s *service) GetStockBySKU(ctx context.Context, sku string) (*models.Stock, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	product, err := s.products.FindBySKU(ctx, strings.TrimSpace(sku))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product by sku")
	}
	return s.GetStock(ctx, product.ID)
}

func (s *service) ListMovements(ctx context.Context, filter MovementFilter, params pagination.Params) ([]models.StockMovement, string, error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type filter")
	}
	movements, next, err := s.repo.ListMovements(ctx, filter, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return movements, next, nil
}

func (s *service) ListOutOfStock(ctx context.Context) ([]models.Stock, error) {
	stocks, err := s.repo.ListOutOfStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list out of stock")
	}
	return stocks, nil
}

func validateMovement(input MovementInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.Type))
	}
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement delta cannot be zero")
	}
	switch input.Type {
	case enums.MovementTypePurchase, enums.MovementTypeReturn, enums.MovementTypeSupplierOrder:
		if input.Delta < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s movements must increase stock", input.Type))
		}
	case enums.MovementTypeSale, enums.MovementTypeCustomerOrder:
		if input.Delta > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s movements must decrease stock", input.Type))
		}
	}
	return nil
}
