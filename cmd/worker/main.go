package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/camila-duarte/galleria/internal/config"
	"github.com/camila-duarte/galleria/internal/mailer"
	"github.com/camila-duarte/galleria/internal/messaging"
	"github.com/camila-duarte/galleria/internal/telemetry"
	"github.com/camila-duarte/galleria/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	if cfg.ResendAPIKey == "" || cfg.OrderNotifyEmail == "" {
		logger.Error("RESEND_API_KEY and ORDER_NOTIFY_EMAIL are required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "galleria-worker", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	consumer := messaging.NewConsumer(brokers, messaging.SaleEventsTopic, "sale-notification-worker")
	defer func() { _ = consumer.Close() }()

	mail := mailer.NewClient(cfg.ResendAPIKey)
	handler := worker.NewNotificationHandler(mail, cfg.OrderNotifyEmail, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting sale notification worker", "brokers", brokers)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
