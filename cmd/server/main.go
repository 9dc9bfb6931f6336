package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qhngn/stockguard/internal/adapter/handler"
	"github.com/qhngn/stockguard/internal/adapter/metrics"
	"github.com/qhngn/stockguard/internal/adapter/storage"
	"github.com/qhngn/stockguard/internal/config"
	"github.com/qhngn/stockguard/internal/core/reserve"
	"github.com/qhngn/stockguard/internal/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mode, err := reserve.ParseMode(cfg.Reserve.Strategy)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Adapters and core
	store := storage.NewMySQLStore(db)
	cache := storage.NewRedisCache(rdb)
	sink := metrics.NewPrometheus()

	coordinator := reserve.NewCoordinator(store, cache, sink, mode, cfg.Reserve.CacheTTL, logger)
	logger.Info("reservation coordinator ready", zap.String("default_strategy", string(mode)))

	// HTTP
	httpHandler := handler.NewHTTPHandler(coordinator, logger)
	healthHandler := handler.NewHealthHandler(db, rdb, cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/buy", handler.WithMetrics(sink, "/api/v1/buy",
		httpHandler.Buy(reserve.ModeNaive, http.StatusCreated)))
	mux.Handle("/api/v2/buy", handler.WithMetrics(sink, "/api/v2/buy",
		httpHandler.Buy(reserve.ModeTransactional, http.StatusCreated)))
	mux.Handle("/api/v3/buy", handler.WithMetrics(sink, "/api/v3/buy",
		httpHandler.Buy(reserve.ModeCachedAtomic, http.StatusAccepted)))
	mux.HandleFunc("/health", healthHandler.Check)
	mux.Handle("/metrics", sink.Handler())

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
