package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-project/internal/cache"
	"todo-project/internal/config"
	"todo-project/internal/database"
	"todo-project/internal/queue"
	"todo-project/internal/repository"
	"todo-project/internal/store"
	"todo-project/pkg/logger"
)

func main() {
	config.LoadEnvFile(".env")

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Error(ctx, "Failed to initialize database", "error", err)
		os.Exit(1)
	}

	publisher := queue.NewPublisher(ctx, cfg.KafkaBrokers)
	queue.EnsureTopics(ctx)

	lists := cache.New(ctx, cfg.RedisURL, time.Duration(cfg.ListCacheTTL)*time.Second)

	srv := store.NewServer(repository.New(db), publisher, lists)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "todo-backend listening", "port", cfg.HTTPPort)
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
	if err := publisher.Close(); err != nil {
		logger.Error(ctx, "Publisher close error", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}
