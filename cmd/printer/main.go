package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/azad-pos/api/internal/config"
	"github.com/azad-pos/api/internal/queue"
	"github.com/azad-pos/api/internal/worker"
	"go.uber.org/zap"
)

// The printer consumes order events and prints a kitchen ticket for every
// new order. It runs next to the kitchen printer, separate from the API.
func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}
	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required")
	}

	var out io.Writer = os.Stdout
	if cfg.PrinterDevice != "" {
		f, err := os.OpenFile(cfg.PrinterDevice, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			logger.Fatalw("failed to open printer device", "device", cfg.PrinterDevice, "error", err)
		}
		defer f.Close()
		out = f
	}

	broker, err := queue.NewRabbitMQBroker(queue.DefaultConfig(cfg.RabbitMQURL), logger)
	if err != nil {
		logger.Fatalw("failed to connect to RabbitMQ", "error", err)
	}
	defer broker.Close()
	logger.Info("connected to RabbitMQ")

	printer := worker.NewPrinterWorker(broker, out, cfg.Location, logger)
	if err := printer.Start(); err != nil {
		logger.Fatalw("failed to start printer worker", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	printer.Stop()
}
