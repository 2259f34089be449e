package suppliers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/internal/stockledger"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockReceiver interface {
	ApplyMovementsInTx(ctx context.Context, tx *gorm.DB, inputs []stockledger.MovementInput) ([]models.StockMovement, error)
}

// CreateSupplierInput captures the fields required to register a supplier.
type CreateSupplierInput struct {
	Name          string
	ContactPerson *string
	Email         string
	Phone         *string
	Address       *string
}

// SupplierOrderItemInput is one requested replenishment line.
type SupplierOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateSupplierOrderInput captures a replenishment order request.
type CreateSupplierOrderInput struct {
	SupplierID       uuid.UUID
	ExpectedDelivery *time.Time
	Items            []SupplierOrderItemInput
}

// Service manages suppliers and the replenishment order lifecycle
// (pending -> placed -> received -> completed, cancellable before receipt).
// Receiving an order appends one positive supplier_order movement per line in
// the same transaction as the status flip.
type Service interface {
	CreateSupplier(ctx context.Context, input CreateSupplierInput) (*models.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)

	CreateSupplierOrder(ctx context.Context, input CreateSupplierOrderInput) (*models.SupplierOrder, error)
	GetSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	ListSupplierOrders(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierOrder, error)
	PlaceSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	ReceiveSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	CompleteSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	CancelSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog productCatalog
	stock   stockReceiver
}

// NewService wires a suppliers service with the required dependencies.
func NewService(repo Repository, tx txRunner, catalog productCatalog, stock stockReceiver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock receiver required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog, stock: stock}, nil
}

func (s *service) CreateSupplier(ctx context.Context, input CreateSupplierInput) (*models.Supplier, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid supplier email required")
	}

	supplier := &models.Supplier{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		ContactPerson: input.ContactPerson,
		Email:         email,
		Phone:         input.Phone,
		Address:       input.Address,
	}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return supplier, nil
}

func (s *service) GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	supplier, err := s.repo.FindSupplierByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

func (s *service) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return suppliers, nil
}

func (s *service) CreateSupplierOrder(ctx context.Context, input CreateSupplierOrderInput) (*models.SupplierOrder, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item unit price cannot be negative")
		}
	}

	if _, err := s.GetSupplier(ctx, input.SupplierID); err != nil {
		return nil, err
	}

	order := &models.SupplierOrder{
		ID:               uuid.New(),
		SupplierID:       input.SupplierID,
		Status:           enums.SupplierOrderStatusPending,
		TotalAmount:      decimal.Zero,
		ExpectedDelivery: input.ExpectedDelivery,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier order")
		}
		total := decimal.Zero
		for _, item := range input.Items {
			if _, err := s.catalog.FindByID(ctx, item.ProductID); err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": item.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			line := &models.SupplierOrderItem{
				ID:              uuid.New(),
				SupplierOrderID: order.ID,
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				UnitPrice:       item.UnitPrice,
			}
			if err := repo.CreateOrderItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier order item")
			}
			total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		return repo.UpdateOrderTotal(ctx, order.ID, total)
	})
	if err != nil {
		return nil, err
	}
	return s.GetSupplierOrder(ctx, order.ID)
}

func (s *service) GetSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier order id required")
	}
	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier order")
	}
	return order, nil
}

func (s *service) ListSupplierOrders(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierOrder, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	orders, err := s.repo.ListOrdersBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier orders")
	}
	return orders, nil
}

func (s *service) PlaceSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	return s.transition(ctx, id, enums.SupplierOrderStatusPlaced, nil)
}

// ReceiveSupplierOrder books the delivery: the placed order moves to
// received and every line lands as a positive supplier_order movement.
// Receipt only adds stock, so it never fails on quantity.
func (s *service) ReceiveSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	return s.transition(ctx, id, enums.SupplierOrderStatusReceived, func(tx *gorm.DB, order *models.SupplierOrder) error {
		orderID := order.ID
		inputs := make([]stockledger.MovementInput, 0, len(order.Items))
		for _, item := range order.Items {
			inputs = append(inputs, stockledger.MovementInput{
				ProductID:   item.ProductID,
				Type:        enums.MovementTypeSupplierOrder,
				Delta:       item.Quantity,
				ReferenceID: &orderID,
			})
		}
		if len(inputs) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "supplier order has no items to receive")
		}
		_, err := s.stock.ApplyMovementsInTx(ctx, tx, inputs)
		return err
	})
}

func (s *service) CompleteSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	return s.transition(ctx, id, enums.SupplierOrderStatusCompleted, nil)
}

func (s *service) CancelSupplierOrder(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	return s.transition(ctx, id, enums.SupplierOrderStatusCancelled, nil)
}

func (s *service) transition(
	ctx context.Context,
	id uuid.UUID,
	target enums.SupplierOrderStatus,
	effect func(tx *gorm.DB, order *models.SupplierOrder) error,
) (*models.SupplierOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier order id required")
	}

	var result *models.SupplierOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "supplier order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier order")
		}
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "supplier order transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": target})
		}

		if effect != nil {
			if err := effect(tx, order); err != nil {
				return err
			}
		}

		ok, err := repo.UpdateOrderStatusGuarded(ctx, order.ID, order.Status, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "supplier order was modified concurrently")
		}

		result, err = repo.FindOrderByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload supplier order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
