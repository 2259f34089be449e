package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/pkg/db"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// minUnitPrice is the smallest price the numeric(12,2) column can hold
// without rounding away.
var minUnitPrice = decimal.New(1, -2)

// Service defines catalog operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// CreateProductInput captures the fields required to register a product.
type CreateProductInput struct {
	SKU              string
	Name             string
	Description      *string
	UnitPrice        decimal.Decimal
	ReorderThreshold int
}

// UpdateProductInput carries optional field updates; nil means "leave as is".
type UpdateProductInput struct {
	Name             *string
	Description      *string
	UnitPrice        *decimal.Decimal
	ReorderThreshold *int
}

// NewService wires a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.UnitPrice.LessThan(minUnitPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be at least 0.01")
	}
	if input.ReorderThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder threshold cannot be negative")
	}

	product := &models.Product{
		ID:               uuid.New(),
		SKU:              sku,
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		UnitPrice:        input.UnitPrice,
		ReorderThreshold: input.ReorderThreshold,
	}

	// every product carries a stock row from the moment it exists
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		stock := &models.Stock{ProductID: product.ID, QuantityAvailable: 0}
		if err := tx.WithContext(ctx).Create(stock).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock row")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.UnitPrice != nil {
		if input.UnitPrice.LessThan(minUnitPrice) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be at least 0.01")
		}
		updates["unit_price"] = *input.UnitPrice
	}
	if input.ReorderThreshold != nil {
		if *input.ReorderThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder threshold cannot be negative")
		}
		updates["reorder_threshold"] = *input.ReorderThreshold
	}
	if len(updates) == 0 {
		return s.GetProduct(ctx, id)
	}

	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		product, err = repo.FindByID(ctx, existing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		return nil
	})
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	product, err := s.repo.FindBySKU(ctx, strings.TrimSpace(sku))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product by sku")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}
