package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput captures the fields required to open an order.
type CreateOrderInput struct {
	CustomerName  string
	CustomerEmail string
	Items         []OrderItemInput
}

// Service manages customer orders and their line items. Item mutations are
// only legal while the order is pending; each one freezes or keeps the unit
// price captured when the line was first added and recomputes the order
// total before committing.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.CustomerOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.CustomerOrder, error)
	ListOrdersByStatus(ctx context.Context, status enums.OrderStatus) ([]models.CustomerOrder, error)
	ListOrdersByCustomerEmail(ctx context.Context, email string) ([]models.CustomerOrder, error)
	ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]models.CustomerOrder, error)
	ListRecentOrders(ctx context.Context, within time.Duration) ([]models.CustomerOrder, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, orderID uuid.UUID, input OrderItemInput) (*models.CustomerOrder, error)
	UpdateItemQuantity(ctx context.Context, orderID, productID uuid.UUID, quantity int) (*models.CustomerOrder, error)
	RemoveItem(ctx context.Context, orderID, productID uuid.UUID) (*models.CustomerOrder, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog productCatalog
}

// NewService wires an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, catalog productCatalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.CustomerOrder, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	email := strings.TrimSpace(strings.ToLower(input.CustomerEmail))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid customer email required")
	}

	// requesting the same product twice merges into a single line
	merged := make([]OrderItemInput, 0, len(input.Items))
	index := map[uuid.UUID]int{}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if at, ok := index[item.ProductID]; ok {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	order := &models.CustomerOrder{
		ID:            uuid.New(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: email,
		Status:        enums.OrderStatusPending,
		TotalAmount:   decimal.Zero,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for _, item := range merged {
			product, err := s.catalog.FindByID(ctx, item.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": item.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			line := &models.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.UnitPrice,
			}
			if err := repo.CreateItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
			}
		}
		return s.recomputeTotal(ctx, repo, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, order.ID)
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.CustomerOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrdersByStatus(ctx context.Context, status enums.OrderStatus) ([]models.CustomerOrder, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	orders, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders by status")
	}
	return orders, nil
}

func (s *service) ListOrdersByCustomerEmail(ctx context.Context, email string) ([]models.CustomerOrder, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	orders, err := s.repo.ListByCustomerEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders by customer")
	}
	return orders, nil
}

func (s *service) ListOrdersByDateRange(ctx context.Context, from, to time.Time) ([]models.CustomerOrder, error) {
	if from.After(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range start must not be after end")
	}
	orders, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders by date range")
	}
	return orders, nil
}

func (s *service) ListRecentOrders(ctx context.Context, within time.Duration) ([]models.CustomerOrder, error) {
	if within <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recency window must be positive")
	}
	now := time.Now()
	return s.ListOrdersByDateRange(ctx, now.Add(-within), now)
}

func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending or cancelled orders can be deleted")
		}
		if err := repo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

func (s *service) AddItem(ctx context.Context, orderID uuid.UUID, input OrderItemInput) (*models.CustomerOrder, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
	}

	err := s.mutateItems(ctx, orderID, func(tx *gorm.DB, repo Repository) error {
		existing, err := repo.FindItem(ctx, orderID, input.ProductID)
		switch {
		case err == gorm.ErrRecordNotFound:
			product, perr := s.catalog.FindByID(ctx, input.ProductID)
			if perr != nil {
				if perr == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, perr, "load product")
			}
			line := &models.OrderItem{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: product.ID,
				Quantity:  input.Quantity,
				UnitPrice: product.UnitPrice,
			}
			if err := repo.CreateItem(ctx, line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
			}
			return nil
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		default:
			// merge keeps the originally frozen unit price
			return repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+input.Quantity)
		}
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, orderID, productID uuid.UUID, quantity int) (*models.CustomerOrder, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
	}
	err := s.mutateItems(ctx, orderID, func(tx *gorm.DB, repo Repository) error {
		item, err := repo.FindItem(ctx, orderID, productID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}
		return repo.UpdateItemQuantity(ctx, item.ID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

func (s *service) RemoveItem(ctx context.Context, orderID, productID uuid.UUID) (*models.CustomerOrder, error) {
	err := s.mutateItems(ctx, orderID, func(tx *gorm.DB, repo Repository) error {
		item, err := repo.FindItem(ctx, orderID, productID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderID)
}

// mutateItems loads the order, rejects edits outside pending, applies fn, and
// recomputes the stored total, all in one transaction.
func (s *service) mutateItems(ctx context.Context, orderID uuid.UUID, fn func(tx *gorm.DB, repo Repository) error) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeItemNotEditable, "order items can only change while pending").
				WithDetails(map[string]any{"status": order.Status})
		}
		if err := fn(tx, repo); err != nil {
			return err
		}
		return s.recomputeTotal(ctx, repo, orderID)
	})
}

func (s *service) recomputeTotal(ctx context.Context, repo Repository, orderID uuid.UUID) error {
	items, err := repo.ListItems(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if err := repo.UpdateTotal(ctx, orderID, total); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order total")
	}
	return nil
}
