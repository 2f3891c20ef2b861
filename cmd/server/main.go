package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"firepoz-backend/internal/config"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/handler"
	"firepoz-backend/internal/persist"
	"firepoz-backend/internal/server"
	"firepoz-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	logger := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	layer, closeLayer, err := persist.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open persistence", "err", err)
		os.Exit(1)
	}
	defer closeLayer()

	accessor := &db.Accessor{
		Persistence:   layer,
		SeedImagePath: cfg.SeedImagePath,
		Logger:        logger,
	}
	defer accessor.Reset()
	if _, err := accessor.Get(ctx); err != nil {
		logger.Error("failed to open store", "err", err)
		os.Exit(1)
	}

	// services
	products := service.ProductService{Stores: accessor, Persist: layer, Logger: logger}
	authSvc := service.AuthService{Stores: accessor, Logger: logger}
	userSvc := service.UserService{Stores: accessor, Persist: layer, Logger: logger}
	categorySvc := service.CategoryService{Stores: accessor, Persist: layer, Logger: logger}
	saleSvc := service.SaleService{Stores: accessor, Persist: layer, Logger: logger}
	dashboardSvc := service.DashboardService{Stores: accessor}

	// handlers
	router := server.NewRouter(cfg, logger, server.Handlers{
		Health:     handler.HealthHandler{Store: accessor},
		Auth:       handler.AuthHandler{Service: authSvc},
		Users:      handler.UserHandler{Service: userSvc},
		Clients:    handler.PartyHandler{Service: service.NewClientService(accessor, layer, logger), Path: "/clients"},
		Suppliers:  handler.PartyHandler{Service: service.NewSupplierService(accessor, layer, logger), Path: "/suppliers"},
		Products:   handler.ProductHandler{Service: products},
		Categories: handler.CategoryHandler{Service: categorySvc, Products: products},
		Stock:      handler.StockHandler{Service: products},
		Sales:      handler.SaleHandler{Service: saleSvc},
		Dashboard:  handler.DashboardHandler{Service: dashboardSvc},
		Store:      handler.StoreHandler{Accessor: accessor},
	})

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
