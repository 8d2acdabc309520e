package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/camila-duarte/galleria/internal/catalog"
	"github.com/camila-duarte/galleria/internal/checkout"
	"github.com/camila-duarte/galleria/internal/config"
	"github.com/camila-duarte/galleria/internal/coupon"
	"github.com/camila-duarte/galleria/internal/mailer"
	"github.com/camila-duarte/galleria/internal/messaging"
	"github.com/camila-duarte/galleria/internal/payment"
	"github.com/camila-duarte/galleria/internal/telemetry"
	"github.com/camila-duarte/galleria/internal/webhook"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "galleria-server", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("galleria-server", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	static, err := catalog.NewStatic()
	if err != nil {
		logger.Error("failed to load embedded catalog", "error", err)
		os.Exit(1)
	}

	// A missing or unreachable database is not fatal: reads degrade to the
	// embedded catalog and the webhook answers 500 until it is back.
	var repo *catalog.Repository
	if cfg.DatabaseURL != "" {
		db, err := telemetry.OpenDB("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Warn("failed to open database, serving static catalog", "error", err)
		} else {
			defer func() { _ = db.Close() }()
			if err := db.Ping(); err != nil {
				logger.Warn("database unreachable at startup, will retry per request", "error", err)
			}
			repo = catalog.NewRepository(db, cfg.ProductsTable)
		}
	} else {
		logger.Info("no DATABASE_URL configured, serving static catalog")
	}

	source := catalog.NewFallback(repo, static, logger)
	catalogHandler := catalog.NewHandler(source, logger)

	validator, err := coupon.NewValidator(cfg.CouponTableJSON)
	if err != nil {
		logger.Error("failed to build coupon table", "error", err)
		os.Exit(1)
	}
	couponHandler := coupon.NewHandler(validator, logger)

	var producer *messaging.Producer
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer = messaging.NewProducer(brokers, messaging.SaleEventsTopic)
		defer func() { _ = producer.Close() }()
	}

	mail := mailer.NewClient(cfg.ResendAPIKey)

	var payClient checkout.PaymentClient
	var clientConfig *checkout.ClientConfig
	if cfg.PaymentsConfigured() {
		payClient = payment.NewClient(cfg.SquareEnvironment, cfg.SquareAccessToken, cfg.SquareLocationID)
		clientConfig = &checkout.ClientConfig{
			Environment:   cfg.SquareEnvironment,
			ApplicationID: cfg.SquareApplicationID,
			LocationID:    cfg.SquareLocationID,
		}
	} else {
		logger.Warn("payment credentials absent, checkout endpoints disabled")
	}

	var marker checkout.InventoryMarker
	var reconciler webhook.Reconciler
	if repo != nil {
		marker = repo
		reconciler = repo
	}

	var publisher checkout.EventPublisher
	var webhookPublisher webhook.EventPublisher
	if producer != nil {
		publisher = producer
		webhookPublisher = producer
	}

	var checkoutMailer checkout.Mailer
	if mail.Enabled() {
		checkoutMailer = mail
	}

	checkoutService := checkout.NewService(payClient, marker, checkoutMailer, cfg.OrderNotifyEmail, publisher, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, clientConfig, logger)

	webhookHandler := webhook.NewHandler(cfg.WebhookSignatureKey, cfg.WebhookNotificationURL,
		reconciler, webhookPublisher, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/inventory", telemetry.WithHTTPRoute(catalogHandler.HandleList))
	mux.HandleFunc("GET /api/inventory/{identifier}", telemetry.WithHTTPRoute(catalogHandler.HandleGet))
	mux.HandleFunc("POST /api/coupon/validate", telemetry.WithHTTPRoute(couponHandler.HandleValidate))
	mux.HandleFunc("POST /api/checkout", telemetry.WithHTTPRoute(checkoutHandler.HandleCheckout))
	mux.HandleFunc("GET /api/checkout/config", telemetry.WithHTTPRoute(checkoutHandler.HandleConfig))
	mux.HandleFunc("POST /api/checkout/webhook", telemetry.WithHTTPRoute(webhookHandler.HandleWebhook))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "galleria-server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting galleria server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
