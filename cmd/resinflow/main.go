package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/resinflow/resinflow/internal/app"
	"github.com/resinflow/resinflow/internal/auth"
	"github.com/resinflow/resinflow/internal/masterdata"
	"github.com/resinflow/resinflow/internal/observability"
	"github.com/resinflow/resinflow/internal/platform/db"
	"github.com/resinflow/resinflow/internal/products"
	"github.com/resinflow/resinflow/internal/rawstock"
	"github.com/resinflow/resinflow/internal/shared"
	"github.com/resinflow/resinflow/internal/staff"
	"github.com/resinflow/resinflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	resolver := masterdata.NewResolver()

	tokenStore := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenStore)
	authHandler := auth.NewHandler(logger, authService)

	masterRepo := masterdata.NewRepository(pool, resolver)
	masterService := masterdata.NewService(masterRepo, auditLogger)
	masterHandler := masterdata.NewHandler(logger, masterService)

	rawStockRepo := rawstock.NewRepository(pool, resolver)
	rawStockService := rawstock.NewService(rawStockRepo, auditLogger)
	rawStockHandler := rawstock.NewHandler(logger, rawStockService)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, auditLogger)
	productsHandler := products.NewHandler(logger, productsService)

	staffRepo := staff.NewRepository(pool)
	staffService := staff.NewService(staffRepo, auditLogger)
	staffHandler := staff.NewHandler(logger, staffService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthService:       authService,
		AuthHandler:       authHandler,
		MasterDataHandler: masterHandler,
		RawStockHandler:   rawStockHandler,
		ProductsHandler:   productsHandler,
		StaffHandler:      staffHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
