package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/internal/catalog"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{}, &models.Stock{},
		&models.CustomerOrder{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, catalog.NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, price string) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:        uuid.New(),
		SKU:       sku,
		Name:      "Product " + sku,
		UnitPrice: decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(&product).Error)
	return product.ID
}

func TestCreateOrderMergesDuplicateLinesAndTotals(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-001", "2.50")
	gadget := seedProduct(t, db, "ORD-002", "10.00")

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName:  "Dana Smith",
		CustomerEmail: "Dana@Example.com",
		Items: []OrderItemInput{
			{ProductID: widget, Quantity: 2},
			{ProductID: gadget, Quantity: 1},
			{ProductID: widget, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, "dana@example.com", order.CustomerEmail)
	require.Len(t, order.Items, 2)

	// 5 * 2.50 + 1 * 10.00
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("22.50")),
		"got total %s", order.TotalAmount)

	for _, item := range order.Items {
		if item.ProductID == widget {
			require.Equal(t, 5, item.Quantity)
		}
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-010", "1.00")

	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{"missing name", CreateOrderInput{CustomerEmail: "a@b.com"}},
		{"bad email", CreateOrderInput{CustomerName: "Dana", CustomerEmail: "nope"}},
		{"zero quantity", CreateOrderInput{
			CustomerName: "Dana", CustomerEmail: "a@b.com",
			Items: []OrderItemInput{{ProductID: widget, Quantity: 0}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}

	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Dana", CustomerEmail: "a@b.com",
		Items: []OrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestAddItemFreezesPriceOnFirstAdd(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-020", "4.00")

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Dana", CustomerEmail: "a@b.com",
		Items: []OrderItemInput{{ProductID: widget, Quantity: 1}},
	})
	require.NoError(t, err)

	// catalog price changes after the line exists
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", widget).
		Update("unit_price", decimal.RequireFromString("9.99")).Error)

	order, err = svc.AddItem(ctx, order.ID, OrderItemInput{ProductID: widget, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, 3, order.Items[0].Quantity)
	require.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.00")))
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("12.00")),
		"got total %s", order.TotalAmount)
}

func TestItemEditsRejectedOutsidePending(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-030", "1.00")

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Dana", CustomerEmail: "a@b.com",
		Items: []OrderItemInput{{ProductID: widget, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.CustomerOrder{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusPaid).Error)

	_, err = svc.AddItem(ctx, order.ID, OrderItemInput{ProductID: widget, Quantity: 1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeItemNotEditable, typed.Code())

	_, err = svc.UpdateItemQuantity(ctx, order.ID, widget, 5)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeItemNotEditable, typed.Code())

	_, err = svc.RemoveItem(ctx, order.ID, widget)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeItemNotEditable, typed.Code())
}

func TestUpdateAndRemoveItemRecomputeTotal(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-040", "3.00")
	gadget := seedProduct(t, db, "ORD-041", "7.00")

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Dana", CustomerEmail: "a@b.com",
		Items: []OrderItemInput{
			{ProductID: widget, Quantity: 2},
			{ProductID: gadget, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("13.00")))

	order, err = svc.UpdateItemQuantity(ctx, order.ID, widget, 4)
	require.NoError(t, err)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("19.00")))

	order, err = svc.RemoveItem(ctx, order.ID, gadget)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("12.00")))

	_, err = svc.RemoveItem(ctx, order.ID, gadget)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteOrderCascadesItems(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-050", "1.00")

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Dana", CustomerEmail: "a@b.com",
		Items: []OrderItemInput{{ProductID: widget, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	var orderCount, itemCount int64
	require.NoError(t, db.Model(&models.CustomerOrder{}).Count(&orderCount).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	require.Zero(t, orderCount)
	require.Zero(t, itemCount)
}

func TestDeleteOrderRejectedWhileInFlight(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-060", "1.00")

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Dana", CustomerEmail: "a@b.com",
		Items: []OrderItemInput{{ProductID: widget, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.CustomerOrder{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusProcessing).Error)

	err = svc.DeleteOrder(ctx, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestOrderFinders(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "ORD-070", "1.00")

	first, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Dana", CustomerEmail: "dana@example.com",
		Items: []OrderItemInput{{ProductID: widget, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Rory", CustomerEmail: "rory@example.com",
		Items: []OrderItemInput{{ProductID: widget, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.CustomerOrder{}).
		Where("id = ?", first.ID).
		Update("status", enums.OrderStatusPaid).Error)

	byStatus, err := svc.ListOrdersByStatus(ctx, enums.OrderStatusPaid)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, first.ID, byStatus[0].ID)

	byEmail, err := svc.ListOrdersByCustomerEmail(ctx, "DANA@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	require.Equal(t, first.ID, byEmail[0].ID)

	recent, err := svc.ListRecentOrders(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	past, err := svc.ListOrdersByDateRange(ctx,
		time.Now().Add(-48*time.Hour), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Empty(t, past)
}
