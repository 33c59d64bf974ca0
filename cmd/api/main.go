package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/safar/pos-store/internal/api"
	"github.com/safar/pos-store/internal/config"
	"github.com/safar/pos-store/internal/database"
	"github.com/safar/pos-store/internal/logging"
	"github.com/safar/pos-store/internal/metrics"
	"github.com/safar/pos-store/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logger := logging.New(cfg.Service, nil)

	db, err := database.NewConnection(context.Background(), &cfg.Database)
	if err != nil {
		logger.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"tx_max_retries", cfg.Database.TxMaxRetries,
	)

	txOpts := database.TxOptionsFromConfig(&cfg.Database)

	if cfg.Service.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(api.RouterConfig{
		Store:          store.New(db, txOpts),
		Logger:         logger,
		Metrics:        metrics.New(),
		MetricsEnabled: cfg.Metrics.Enabled,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return
	}

	logger.Info("server stopped")
}
