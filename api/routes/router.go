package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supplyline-io/supplyline-backend/api/controllers"
	"github.com/supplyline-io/supplyline-backend/api/middleware"
	"github.com/supplyline-io/supplyline-backend/internal/catalog"
	"github.com/supplyline-io/supplyline-backend/internal/fulfillment"
	"github.com/supplyline-io/supplyline-backend/internal/orders"
	"github.com/supplyline-io/supplyline-backend/internal/reorder"
	"github.com/supplyline-io/supplyline-backend/internal/stockledger"
	"github.com/supplyline-io/supplyline-backend/internal/suppliers"
	"github.com/supplyline-io/supplyline-backend/pkg/config"
	"github.com/supplyline-io/supplyline-backend/pkg/db"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *db.Client
	Registry    *prometheus.Registry
	Catalog     catalog.Service
	StockLedger stockledger.Service
	Orders      orders.Service
	Fulfillment fulfillment.Service
	Reorder     reorder.Advisor
	Suppliers   suppliers.Service
}

// New assembles the HTTP router.
func New(deps Deps) http.Handler {
	logg := deps.Logger
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))

	r.Get("/health/live", controllers.HealthLive(deps.Config.App.Env))
	r.Get("/health/ready", controllers.HealthReady(deps.Config.App.Env, deps.DB, logg))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			deps.Registry,
			promhttp.HandlerOpts{},
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(deps.Catalog, logg))
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/sku/{sku}", controllers.GetProductBySKU(deps.Catalog, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(deps.Catalog, logg))
				r.Patch("/", controllers.UpdateProduct(deps.Catalog, logg))
				r.Delete("/", controllers.DeleteProduct(deps.Catalog, logg))
			})
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/out-of-stock", controllers.ListOutOfStock(deps.StockLedger, logg))
			r.Get("/sku/{sku}", controllers.GetStockBySKU(deps.StockLedger, logg))
			r.Get("/movements", controllers.ListMovements(deps.StockLedger, logg))
			r.Post("/movements", controllers.ApplyMovement(deps.StockLedger, logg))
			r.Post("/adjustments", controllers.CreateAdjustment(deps.StockLedger, logg))
			r.Get("/{productId}", controllers.GetStock(deps.StockLedger, logg))
		})

		r.Get("/reorder-candidates", controllers.ListReorderCandidates(
			deps.Reorder, deps.Config.Reorder.CandidateLimit, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(deps.Orders, logg))
				r.Delete("/", controllers.DeleteOrder(deps.Orders, logg))
				r.Post("/status", controllers.TransitionOrderStatus(deps.Fulfillment, logg))
				r.Post("/items", controllers.AddOrderItem(deps.Orders, logg))
				r.Patch("/items/{productId}", controllers.UpdateOrderItem(deps.Orders, logg))
				r.Delete("/items/{productId}", controllers.RemoveOrderItem(deps.Orders, logg))
			})
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Post("/", controllers.CreateSupplier(deps.Suppliers, logg))
			r.Get("/", controllers.ListSuppliers(deps.Suppliers, logg))
			r.Get("/{supplierId}", controllers.GetSupplier(deps.Suppliers, logg))
		})

		r.Route("/supplier-orders", func(r chi.Router) {
			r.Post("/", controllers.CreateSupplierOrder(deps.Suppliers, logg))
			r.Get("/", controllers.ListSupplierOrders(deps.Suppliers, logg))
			r.Route("/{supplierOrderId}", func(r chi.Router) {
				r.Get("/", controllers.GetSupplierOrder(deps.Suppliers, logg))
				r.Post("/place", controllers.PlaceSupplierOrder(deps.Suppliers, logg))
				r.Post("/receive", controllers.ReceiveSupplierOrder(deps.Suppliers, logg))
				r.Post("/complete", controllers.CompleteSupplierOrder(deps.Suppliers, logg))
				r.Post("/cancel", controllers.CancelSupplierOrder(deps.Suppliers, logg))
			})
		})
	})

	return r
}
