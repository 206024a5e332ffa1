package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	webAdapter "stockbook/internal/adapters/web"
	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/core"
	"stockbook/internal/db"
	"stockbook/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if os.Getenv("MIGRATE_ON_START") == "true" {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	pool, err := db.NewPool(ctx, db.Options{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	stocks := core.NewStockService(pool, logger)
	invoices := core.NewInvoiceService(pool, stocks, logger)
	svc := app.NewAppService(app.Services{
		Stocks:    stocks,
		Invoices:  invoices,
		Numbering: core.NewNumberingService(pool),
		Reporting: core.NewReportingService(invoices, stocks, cfg.LowStockThreshold, logger),
		Business:  core.NewBusinessService(pool),
		Users:     core.NewUserService(pool),
	}, cfg.LowStockThreshold)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.JWTSecret, logger),
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
