package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/internal/orders"
	"github.com/supplyline-io/supplyline-backend/internal/stockledger"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockCommitter interface {
	ApplyMovementsInTx(ctx context.Context, tx *gorm.DB, inputs []stockledger.MovementInput) ([]models.StockMovement, error)
}

// Service drives customer orders through their status lifecycle and keeps the
// stock ledger in step. Committing an order's stock, shipping it, and
// reversing it on cancellation all ride the same transaction as the status
// flip, so an order can never change state without its ledger effects.
type Service interface {
	TransitionStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.CustomerOrder, error)
}

type service struct {
	orders  orders.Repository
	ledger  stockledger.Repository
	stock   stockCommitter
	tx      txRunner
	metrics *metrics.LedgerMetrics
}

// NewService wires a fulfillment service with the required dependencies.
// Metrics may be nil.
func NewService(
	ordersRepo orders.Repository,
	ledgerRepo stockledger.Repository,
	stock stockCommitter,
	tx txRunner,
	m *metrics.LedgerMetrics,
) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ledgerRepo == nil {
		return nil, fmt.Errorf("stock ledger repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock committer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{orders: ordersRepo, ledger: ledgerRepo, stock: stock, tx: tx, metrics: m}, nil
}

func (s *service) TransitionStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.CustomerOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}

	var (
		result    *models.CustomerOrder
		committed []models.StockMovement
		from      enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		from = order.Status

		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": target})
		}

		extra := map[string]any{}

		switch target {
		case enums.OrderStatusProcessing, enums.OrderStatusShipped:
			movements, err := s.commitStockOnce(ctx, tx, order)
			if err != nil {
				return err
			}
			committed = append(committed, movements...)
			if target == enums.OrderStatusShipped {
				extra["tracking_token"] = newTrackingToken()
			}
		case enums.OrderStatusCancelled:
			movements, err := s.reverseCommittedStock(ctx, tx, order)
			if err != nil {
				return err
			}
			committed = append(committed, movements...)
		}

		ok, err := ordersRepo.UpdateStatusGuarded(ctx, order.ID, order.Status, target, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "order was modified concurrently")
		}

		result, err = ordersRepo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			s.metrics.IncStockRefusal()
		}
		return nil, err
	}

	s.metrics.IncOrderTransition(from.String(), target.String())
	for _, m := range committed {
		s.metrics.IncMovementApplied(m.Type.String())
	}
	return result, nil
}

// commitStockOnce deducts stock for every order line, exactly once per order.
// An order that already has customer_order movements keeps them; one that
// does not gets the full batch or, on any shortage, nothing.
func (s *service) commitStockOnce(ctx context.Context, tx *gorm.DB, order *models.CustomerOrder) ([]models.StockMovement, error) {
	existing, err := s.ledger.WithTx(tx).ListByReference(ctx, order.ID, enums.MovementTypeCustomerOrder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order movements")
	}
	if len(existing) > 0 {
		return nil, nil
	}
	if len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no items to fulfill")
	}

	orderID := order.ID
	inputs := make([]stockledger.MovementInput, 0, len(order.Items))
	for _, item := range order.Items {
		inputs = append(inputs, stockledger.MovementInput{
			ProductID:   item.ProductID,
			Type:        enums.MovementTypeCustomerOrder,
			Delta:       -item.Quantity,
			ReferenceID: &orderID,
		})
	}
	return s.stock.ApplyMovementsInTx(ctx, tx, inputs)
}

// reverseCommittedStock puts back whatever the order previously took. Orders
// cancelled before any stock was committed need no ledger entries.
func (s *service) reverseCommittedStock(ctx context.Context, tx *gorm.DB, order *models.CustomerOrder) ([]models.StockMovement, error) {
	existing, err := s.ledger.WithTx(tx).ListByReference(ctx, order.ID, enums.MovementTypeCustomerOrder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order movements")
	}
	if len(existing) == 0 {
		return nil, nil
	}

	byProduct := map[uuid.UUID]int{}
	productOrder := make([]uuid.UUID, 0, len(existing))
	for _, movement := range existing {
		if _, seen := byProduct[movement.ProductID]; !seen {
			productOrder = append(productOrder, movement.ProductID)
		}
		byProduct[movement.ProductID] += movement.Delta
	}

	orderID := order.ID
	notes := "order cancelled"
	inputs := make([]stockledger.MovementInput, 0, len(byProduct))
	for _, productID := range productOrder {
		taken := byProduct[productID]
		if taken >= 0 {
			continue
		}
		inputs = append(inputs, stockledger.MovementInput{
			ProductID:   productID,
			Type:        enums.MovementTypeReturn,
			Delta:       -taken,
			ReferenceID: &orderID,
			Notes:       &notes,
		})
	}
	if len(inputs) == 0 {
		return nil, nil
	}
	return s.stock.ApplyMovementsInTx(ctx, tx, inputs)
}

func newTrackingToken() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TRK-" + raw[:16]
}
