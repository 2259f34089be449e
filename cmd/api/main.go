package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/supplyline-io/supplyline-backend/api/routes"
	"github.com/supplyline-io/supplyline-backend/internal/catalog"
	"github.com/supplyline-io/supplyline-backend/internal/fulfillment"
	"github.com/supplyline-io/supplyline-backend/internal/orders"
	"github.com/supplyline-io/supplyline-backend/internal/reorder"
	"github.com/supplyline-io/supplyline-backend/internal/stockledger"
	"github.com/supplyline-io/supplyline-backend/internal/suppliers"
	"github.com/supplyline-io/supplyline-backend/pkg/config"
	"github.com/supplyline-io/supplyline-backend/pkg/db"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
	"github.com/supplyline-io/supplyline-backend/pkg/metrics"
	"github.com/supplyline-io/supplyline-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogSvc, err := catalog.NewService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ledgerRepo := stockledger.NewRepository(dbClient.DB())
	ledgerSvc, err := stockledger.NewService(ledgerRepo, dbClient, catalogRepo, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock ledger service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	fulfillmentSvc, err := fulfillment.NewService(ordersRepo, ledgerRepo, ledgerSvc, dbClient, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	advisor, err := reorder.NewAdvisor(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create reorder advisor", err)
		os.Exit(1)
	}

	suppliersSvc, err := suppliers.NewService(
		suppliers.NewRepository(dbClient.DB()), dbClient, catalogRepo, ledgerSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create suppliers service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.New(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Registry:    registry,
			Catalog:     catalogSvc,
			StockLedger: ledgerSvc,
			Orders:      ordersSvc,
			Fulfillment: fulfillmentSvc,
			Reorder:     advisor,
			Suppliers:   suppliersSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
