package stockledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/supplyline-io/supplyline-backend/internal/catalog"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stockledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Stock{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, catalog.NewRepository(db), nil)
	require.NoError(t, err)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, qty int) uuid.UUID {
	t.Helper()
	product := models.Product{
		ID:        uuid.New(),
		SKU:       sku,
		Name:      "Product " + sku,
		UnitPrice: decimal.NewFromInt(10),
	}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&models.Stock{ProductID: product.ID, QuantityAvailable: qty}).Error)
	return product.ID
}

func TestApplyMovementIncreasesStock(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "SKU-100", 0)

	movement, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.MovementTypePurchase,
		Delta:     10,
	})
	require.NoError(t, err)
	require.Equal(t, 10, movement.Delta)
	require.NotEqual(t, uuid.Nil, movement.ID)
	require.False(t, movement.CreatedAt.IsZero())

	var stock models.Stock
	require.NoError(t, db.First(&stock, "product_id = ?", productID).Error)
	require.Equal(t, 10, stock.QuantityAvailable)
}

func TestApplyMovementInsufficientStock(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "SKU-101", 3)

	_, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID,
		Type:      enums.MovementTypeSale,
		Delta:     -5,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, 5, details["requested"])
	require.Equal(t, 3, details["available"])

	// nothing committed
	var stock models.Stock
	require.NoError(t, db.First(&stock, "product_id = ?", productID).Error)
	require.Equal(t, 3, stock.QuantityAvailable)

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Where("product_id = ?", productID).Count(&count).Error)
	require.Zero(t, count)
}

func TestApplyMovementsBatchIsAllOrNothing(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productA := seedProduct(t, db, "SKU-102", 10)
	productB := seedProduct(t, db, "SKU-103", 1)

	_, err := svc.ApplyMovements(ctx, []MovementInput{
		{ProductID: productA, Type: enums.MovementTypeSale, Delta: -4},
		{ProductID: productB, Type: enums.MovementTypeSale, Delta: -2},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	var stockA, stockB models.Stock
	require.NoError(t, db.First(&stockA, "product_id = ?", productA).Error)
	require.NoError(t, db.First(&stockB, "product_id = ?", productB).Error)
	require.Equal(t, 10, stockA.QuantityAvailable)
	require.Equal(t, 1, stockB.QuantityAvailable)

	var count int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestApplyMovementUnknownProduct(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.ApplyMovement(context.Background(), MovementInput{
		ProductID: uuid.New(),
		Type:      enums.MovementTypePurchase,
		Delta:     5,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestFirstMovementCreatesStockRow(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	// product registered without a stock row
	product := models.Product{
		ID:        uuid.New(),
		SKU:       "SKU-130",
		Name:      "Product SKU-130",
		UnitPrice: decimal.NewFromInt(10),
	}
	require.NoError(t, db.Create(&product).Error)

	// a negative opening movement is a shortfall against zero, not a 404
	_, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: product.ID, Type: enums.MovementTypeSale, Delta: -1,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	_, err = svc.ApplyMovement(ctx, MovementInput{
		ProductID: product.ID, Type: enums.MovementTypePurchase, Delta: 6,
	})
	require.NoError(t, err)

	stock, err := svc.GetStock(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 6, stock.QuantityAvailable)
}

func TestApplyMovementDirectionRules(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "SKU-104", 10)

	cases := []struct {
		name  string
		input MovementInput
	}{
		{"zero delta", MovementInput{ProductID: productID, Type: enums.MovementTypeAdjustment, Delta: 0}},
		{"positive sale", MovementInput{ProductID: productID, Type: enums.MovementTypeSale, Delta: 3}},
		{"negative purchase", MovementInput{ProductID: productID, Type: enums.MovementTypePurchase, Delta: -3}},
		{"negative return", MovementInput{ProductID: productID, Type: enums.MovementTypeReturn, Delta: -1}},
		{"positive customer order", MovementInput{ProductID: productID, Type: enums.MovementTypeCustomerOrder, Delta: 2}},
		{"bad type", MovementInput{ProductID: productID, Type: enums.MovementType("teleport"), Delta: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ApplyMovement(ctx, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			require.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestAdjustmentBothDirections(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "SKU-105", 5)

	notes := "cycle count correction"
	_, err := svc.CreateAdjustment(ctx, AdjustmentInput{ProductID: productID, Delta: -2, Notes: &notes})
	require.NoError(t, err)
	_, err = svc.CreateAdjustment(ctx, AdjustmentInput{ProductID: productID, Delta: 4, Notes: &notes})
	require.NoError(t, err)

	var stock models.Stock
	require.NoError(t, db.First(&stock, "product_id = ?", productID).Error)
	require.Equal(t, 7, stock.QuantityAvailable)
}

func TestAdjustmentRequiresNote(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	productID := seedProduct(t, db, "SKU-106", 5)

	_, err := svc.CreateAdjustment(context.Background(), AdjustmentInput{ProductID: productID, Delta: -1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	empty := "   "
	_, err = svc.CreateAdjustment(context.Background(), AdjustmentInput{ProductID: productID, Delta: -1, Notes: &empty})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestQuantityMatchesMovementSum(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "SKU-107", 0)

	note := "recount"
	inputs := []MovementInput{
		{ProductID: productID, Type: enums.MovementTypePurchase, Delta: 20},
		{ProductID: productID, Type: enums.MovementTypeSale, Delta: -7},
		{ProductID: productID, Type: enums.MovementTypeAdjustment, Delta: -3, Notes: &note},
		{ProductID: productID, Type: enums.MovementTypeReturn, Delta: 2},
		{ProductID: productID, Type: enums.MovementTypeSale, Delta: -5},
	}
	for _, input := range inputs {
		_, err := svc.ApplyMovement(ctx, input)
		require.NoError(t, err)
	}

	repo := NewRepository(db)
	sum, err := repo.SumDeltas(ctx, productID)
	require.NoError(t, err)

	stock, err := svc.GetStock(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, sum, stock.QuantityAvailable)
	require.Equal(t, 7, stock.QuantityAvailable)
}

func TestGetStockBySKU(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "SKU-108", 12)

	stock, err := svc.GetStockBySKU(ctx, "SKU-108")
	require.NoError(t, err)
	require.Equal(t, productID, stock.ProductID)
	require.Equal(t, 12, stock.QuantityAvailable)

	_, err = svc.GetStockBySKU(ctx, "SKU-MISSING")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListMovementsFilterAndPagination(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	productID := seedProduct(t, db, "SKU-109", 0)
	otherID := seedProduct(t, db, "SKU-110", 0)

	for i := 0; i < 5; i++ {
		_, err := svc.ApplyMovement(ctx, MovementInput{
			ProductID: productID, Type: enums.MovementTypePurchase, Delta: 1,
		})
		require.NoError(t, err)
	}
	_, err := svc.ApplyMovement(ctx, MovementInput{
		ProductID: otherID, Type: enums.MovementTypePurchase, Delta: 9,
	})
	require.NoError(t, err)
	_, err = svc.ApplyMovement(ctx, MovementInput{
		ProductID: productID, Type: enums.MovementTypeSale, Delta: -2,
	})
	require.NoError(t, err)

	// filter by product
	movements, _, err := svc.ListMovements(ctx, MovementFilter{ProductID: &productID}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, movements, 6)
	for _, m := range movements {
		require.Equal(t, productID, m.ProductID)
	}

	// filter by type
	saleType := enums.MovementTypeSale
	movements, _, err = svc.ListMovements(ctx, MovementFilter{Type: &saleType}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, -2, movements[0].Delta)

	// paginate across all movements, no duplicates
	seen := map[uuid.UUID]bool{}
	cursor := ""
	pages := 0
	for {
		page, next, err := svc.ListMovements(ctx, MovementFilter{}, pagination.Params{Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		for _, m := range page {
			require.False(t, seen[m.ID], "duplicate movement across pages")
			seen[m.ID] = true
		}
		pages++
		if next == "" {
			break
		}
		cursor = next
	}
	require.Equal(t, 7, len(seen))
	require.GreaterOrEqual(t, pages, 3)

	var saved int64
	require.NoError(t, db.Model(&models.StockMovement{}).Count(&saved).Error)
	require.EqualValues(t, 7, saved)
}

func TestListOutOfStock(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	emptyID := seedProduct(t, db, "SKU-111", 0)
	seedProduct(t, db, "SKU-112", 4)

	stocks, err := svc.ListOutOfStock(ctx)
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	require.Equal(t, emptyID, stocks[0].ProductID)
}
