package main

import (
	"context"
	"os/signal"
	"syscall"

	"todo-project/internal/config"
	"todo-project/internal/notifier"
	"todo-project/pkg/logger"
)

func main() {
	config.LoadEnvFile(".env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	logger.Info(ctx, "Notifier starting", "brokers", cfg.KafkaBrokers)

	n := notifier.New(cfg.KafkaBrokers, cfg.WebhookURL)
	n.Run(ctx)

	logger.Info(ctx, "Notifier stopped")
}
