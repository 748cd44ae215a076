package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/repository"
	"github.com/mamadbah2/pantry/internal/repository/jsonfile"
	"github.com/mamadbah2/pantry/internal/repository/mongodb"
	"github.com/mamadbah2/pantry/internal/repository/sheets"
	"github.com/mamadbah2/pantry/internal/scheduler"
	"github.com/mamadbah2/pantry/internal/server/handlers"
	"github.com/mamadbah2/pantry/internal/server/router"
	catalogsvc "github.com/mamadbah2/pantry/internal/service/catalog"
	nutritionsvc "github.com/mamadbah2/pantry/internal/service/nutrition"
	reportingsvc "github.com/mamadbah2/pantry/internal/service/reporting"
	stocksvc "github.com/mamadbah2/pantry/internal/service/stock"
	"github.com/mamadbah2/pantry/pkg/clients/openfoodfacts"
	"github.com/mamadbah2/pantry/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, closeStore := openStore(cfg.Storage, baseLogger)
	defer closeStore()

	tables := repository.NewTables(store, baseLogger.Named("repo.tables"))

	registry := nutritionsvc.NewRegistry(tables, baseLogger.Named("svc.registry"))
	if err := registry.EnsureDefaults(context.Background(), nutritionsvc.DefaultCategories); err != nil {
		baseLogger.Fatal("failed to seed nutrient categories", zap.Error(err))
	}

	resolver := nutritionsvc.Resolver{ScaleSubDishes: cfg.Nutrition.ScaleSubDishes}
	nutritionSvc := nutritionsvc.NewService(tables, resolver, baseLogger.Named("svc.nutrition"))

	// Stored dish nutrition is derived data; refresh it before serving.
	if err := nutritionSvc.RecomputeAllDishes(context.Background()); err != nil {
		baseLogger.Fatal("failed to recompute dish nutrition", zap.Error(err))
	}

	catalogSvc := catalogsvc.NewService(tables, nutritionSvc, baseLogger.Named("svc.catalog"))
	tracker := stocksvc.NewTracker(tables, resolver, stocksvc.Options{EnforceExpiry: cfg.Stock.EnforceExpiry}, baseLogger.Named("svc.stock"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, stock export disabled")
	}

	reportingSvc := reportingsvc.NewService(tables, tracker, sheetsRepo, cfg.Sheets.StockRange, baseLogger.Named("svc.reporting"))
	offClient := openfoodfacts.NewClient(cfg.OpenFoodFacts)

	engine := router.New(router.Handlers{
		Catalog:   handlers.NewCatalogHandler(catalogSvc, offClient, baseLogger.Named("handlers.catalog")),
		Nutrition: handlers.NewNutritionHandler(registry, nutritionSvc, baseLogger.Named("handlers.nutrition")),
		Stock:     handlers.NewStockHandler(tracker, reportingSvc, baseLogger.Named("handlers.stock")),
	}, baseLogger.Named("router"))

	var exporter scheduler.StockExporter
	if sheetsRepo != nil {
		exporter = reportingSvc
	}
	sched, err := scheduler.NewScheduler(cfg.Scheduler, nutritionSvc, exporter, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(cfg config.StorageConfig, baseLogger *zap.Logger) (repository.Store, func()) {
	switch cfg.Backend {
	case config.StorageMongo:
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		return mongoRepo, func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}
	default:
		fileStore, err := jsonfile.NewStore(cfg.DataDir, baseLogger.Named("repo.jsonfile"))
		if err != nil {
			baseLogger.Fatal("failed to init json file store", zap.Error(err))
		}
		return fileStore, func() {}
	}
}
