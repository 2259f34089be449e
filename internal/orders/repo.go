package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
)

// Repository manages persistence for customer orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.CustomerOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerOrder, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.CustomerOrder, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]models.CustomerOrder, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.CustomerOrder, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// UpdateStatusGuarded flips status only when the row still holds the
	// expected current status. Returns false when another writer got there
	// first.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, extra map[string]any) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error

	FindItem(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderItem, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.CustomerOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerOrder, error) {
	var order models.CustomerOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.CustomerOrder, error) {
	var orders []models.CustomerOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByCustomerEmail(ctx context.Context, email string) ([]models.CustomerOrder, error) {
	var orders []models.CustomerOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_email = ?", email).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.CustomerOrder, error) {
	var orders []models.CustomerOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_date >= ? AND order_date <= ?", from, to).
		Order("order_date DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.CustomerOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	// items removed explicitly so the cascade never depends on FK pragmas
	if err := r.db.WithContext(ctx).
		Delete(&models.OrderItem{}, "order_id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Delete(&models.CustomerOrder{}, "id = ?", id).Error
}

func (r *repository) FindItem(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).
		First(&item, "order_id = ? AND product_id = ?", orderID, productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.OrderItem{}, "id = ?", itemID).Error
}

func (r *repository) UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerOrder{}).
		Where("id = ?", orderID).
		Update("total_amount", total).Error
}
