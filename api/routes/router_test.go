package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/supplyline-io/supplyline-backend/internal/catalog"
	"github.com/supplyline-io/supplyline-backend/internal/fulfillment"
	"github.com/supplyline-io/supplyline-backend/internal/orders"
	"github.com/supplyline-io/supplyline-backend/internal/reorder"
	"github.com/supplyline-io/supplyline-backend/internal/stockledger"
	"github.com/supplyline-io/supplyline-backend/internal/suppliers"
	"github.com/supplyline-io/supplyline-backend/pkg/config"
	"github.com/supplyline-io/supplyline-backend/pkg/db"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		DB: config.DBConfig{
			DSN:    "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared",
			Driver: "sqlite",
		},
		Reorder: config.ReorderConfig{CandidateLimit: 100},
	}
	logg := logger.New(logger.Options{
		ServiceName: "supplyline-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})

	client, err := db.New(context.Background(), cfg.DB, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(
		&models.Product{}, &models.Stock{}, &models.StockMovement{},
		&models.CustomerOrder{}, &models.OrderItem{},
		&models.Supplier{}, &models.SupplierOrder{}, &models.SupplierOrderItem{},
	))

	catalogRepo := catalog.NewRepository(client.DB())
	catalogSvc, err := catalog.NewService(catalogRepo, client)
	require.NoError(t, err)

	ledgerRepo := stockledger.NewRepository(client.DB())
	ledgerSvc, err := stockledger.NewService(ledgerRepo, client, catalogRepo, nil)
	require.NoError(t, err)

	ordersRepo := orders.NewRepository(client.DB())
	ordersSvc, err := orders.NewService(ordersRepo, client, catalogRepo)
	require.NoError(t, err)

	fulfillmentSvc, err := fulfillment.NewService(ordersRepo, ledgerRepo, ledgerSvc, client, nil)
	require.NoError(t, err)

	advisor, err := reorder.NewAdvisor(client.DB())
	require.NoError(t, err)

	suppliersSvc, err := suppliers.NewService(suppliers.NewRepository(client.DB()), client, catalogRepo, ledgerSvc)
	require.NoError(t, err)

	handler := New(Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          client,
		Catalog:     catalogSvc,
		StockLedger: ledgerSvc,
		Orders:      ordersSvc,
		Fulfillment: fulfillmentSvc,
		Reorder:     advisor,
		Suppliers:   suppliersSvc,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/health/live", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	require.Equal(t, "ok", data["status"])

	resp, body = doJSON(t, http.MethodGet, server.URL+"/health/ready", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]any)
	require.Equal(t, "ready", data["status"])
}

func TestRequestIDEchoed(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/health/live", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "req-42", resp.Header.Get("X-Request-Id"))
}

func TestOrderFulfillmentFlow(t *testing.T) {
	server := newTestServer(t)

	// product with stock
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/products", map[string]any{
		"sku":               "API-001",
		"name":              "Widget",
		"unit_price":        "9.99",
		"reorder_threshold": 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := body["data"].(map[string]any)["id"].(string)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/stock/movements", map[string]any{
		"product_id": productID,
		"type":       "purchase",
		"delta":      10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/stock/"+productID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 10, body["data"].(map[string]any)["quantity_available"])

	// order for 4 units
	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/orders", map[string]any{
		"customer_name":  "Ada",
		"customer_email": "ada@example.com",
		"items": []map[string]any{
			{"product_id": productID, "quantity": 4},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["data"].(map[string]any)["id"].(string)

	// processing commits stock
	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/orders/"+orderID+"/status", map[string]any{
		"status": "processing",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "processing", body["data"].(map[string]any)["status"])

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/stock/"+productID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 6, body["data"].(map[string]any)["quantity_available"])

	// shipping stamps a tracking token
	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/orders/"+orderID+"/status", map[string]any{
		"status": "shipped",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["data"].(map[string]any)["tracking_token"].(string)
	require.NotEmpty(t, token)
}

func TestInsufficientStockOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/products", map[string]any{
		"sku":        "API-010",
		"name":       "Scarce",
		"unit_price": "2.50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := body["data"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/stock/movements", map[string]any{
		"product_id": productID,
		"type":       "sale",
		"delta":      -1,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	apiErr := body["error"].(map[string]any)
	require.Equal(t, "INSUFFICIENT_STOCK", apiErr["code"])
	details := apiErr["details"].(map[string]any)
	require.EqualValues(t, 1, details["requested"])
	require.EqualValues(t, 0, details["available"])
}

func TestIllegalTransitionOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/products", map[string]any{
		"sku":        "API-020",
		"name":       "Gadget",
		"unit_price": "1.00",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := body["data"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/orders", map[string]any{
		"customer_name":  "Grace",
		"customer_email": "grace@example.com",
		"items": []map[string]any{
			{"product_id": productID, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["data"].(map[string]any)["id"].(string)

	// pending cannot jump straight to delivered
	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/orders/"+orderID+"/status", map[string]any{
		"status": "delivered",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, "STATE_CONFLICT", body["error"].(map[string]any)["code"])
}

func TestUnknownProductReturns404Envelope(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/v1/products/%s", server.URL, uuid.NewString()), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	apiErr := body["error"].(map[string]any)
	require.Equal(t, "NOT_FOUND", apiErr["code"])
	require.Equal(t, "product not found", apiErr["message"])
}

func TestSupplierOrderLifecycleOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/products", map[string]any{
		"sku":        "API-030",
		"name":       "Bolt",
		"unit_price": "0.10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productID := body["data"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/suppliers", map[string]any{
		"name":  "Bolt Co",
		"email": "sales@boltco.example",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	supplierID := body["data"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/supplier-orders", map[string]any{
		"supplier_id": supplierID,
		"items": []map[string]any{
			{"product_id": productID, "quantity": 100, "unit_price": "0.08"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["data"].(map[string]any)["id"].(string)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/supplier-orders/"+orderID+"/place", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/v1/supplier-orders/"+orderID+"/receive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "received", body["data"].(map[string]any)["status"])

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/v1/stock/"+productID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 100, body["data"].(map[string]any)["quantity_available"])
}
