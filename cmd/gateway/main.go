package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-project/internal/config"
	"todo-project/internal/gateway"
	"todo-project/internal/imagecache"
	"todo-project/pkg/logger"
)

func main() {
	config.LoadEnvFile(".env")

	ctx := context.Background()
	cfg := config.Get()

	images := imagecache.New(cfg.ImageURL, cfg.ImageDir, time.Duration(cfg.CacheDuration)*time.Second)
	srv := gateway.NewServer(cfg.BackendURL, images)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Gateway listening", "port", cfg.HTTPPort, "backend", cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}
