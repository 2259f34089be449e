package suppliers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
)

// Repository manages persistence for suppliers and their replenishment orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	FindSupplierByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateOrder(ctx context.Context, order *models.SupplierOrder) error
	CreateOrderItem(ctx context.Context, item *models.SupplierOrderItem) error
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	ListOrdersBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierOrder, error)
	ListOrdersByStatus(ctx context.Context, status enums.SupplierOrderStatus) ([]models.SupplierOrder, error)
	// UpdateOrderStatusGuarded flips status only when the row still holds
	// the expected current status.
	UpdateOrderStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.SupplierOrderStatus) (bool, error)
	UpdateOrderTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a suppliers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *repository) FindSupplierByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *repository) UpdateSupplier(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateOrder(ctx context.Context, order *models.SupplierOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateOrderItem(ctx context.Context, item *models.SupplierOrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	var order models.SupplierOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrdersBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.SupplierOrder, error) {
	var orders []models.SupplierOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("supplier_id = ?", supplierID).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListOrdersByStatus(ctx context.Context, status enums.SupplierOrderStatus) ([]models.SupplierOrder, error) {
	var orders []models.SupplierOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateOrderStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.SupplierOrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SupplierOrder{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateOrderTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.SupplierOrder{}).
		Where("id = ?", orderID).
		Update("total_amount", total).Error
}
