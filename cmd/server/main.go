package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/gaug1c/ecommerce-backend/internal/application/finance"
	tradeapp "github.com/gaug1c/ecommerce-backend/internal/application/trade"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/auth"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/cache"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/config"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/event"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/logger"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/payment"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/persistence"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/telemetry"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/handler"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const componentShutdownTimeout = 10 * time.Second

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Env:     cfg.App.Env,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ecommerce backend",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Tracing
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer shutdown(log, "tracer provider", tp.Shutdown)

	var metrics *telemetry.BusinessMetrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewBusinessMetrics(cfg.Metrics.Namespace)
	}

	// Database
	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log,
		LogLevel:      cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
		Tracing:       &dbTracing,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Gateway token store, shared through Redis when available
	tokenStore, storeCloser, err := cache.NewTokenStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		return err
	}
	if storeCloser != nil {
		defer storeCloser.Close()
	}

	singPay, err := payment.NewSingPayClient(payment.SingPayConfig{
		APIURL:       cfg.SingPay.APIURL,
		TokenURL:     cfg.SingPay.TokenURL,
		ClientID:     cfg.SingPay.ClientID,
		ClientSecret: cfg.SingPay.ClientSecret,
		Timeout:      cfg.SingPay.Timeout,
		TokenTTL:     cfg.SingPay.TokenTTL,
	},
		payment.WithTokenStore(tokenStore),
		payment.WithMetrics(metrics),
		payment.WithLogger(log),
	)
	if err != nil {
		return err
	}

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewNotificationHandler(log))
	if cfg.Kafka.Enabled {
		forwarder, err := event.NewKafkaForwarder(event.KafkaForwarderConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, log)
		if err != nil {
			return err
		}
		defer forwarder.Close()
		eventBus.Subscribe(forwarder)
	}
	if err := eventBus.Start(ctx); err != nil {
		return err
	}
	defer shutdown(log, "event bus", eventBus.Stop)

	// Repositories and services
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	cartService := tradeapp.NewCartService(cartRepo, productRepo, log)
	checkoutService := tradeapp.NewCheckoutService(tradeapp.CheckoutServiceConfig{
		TxScope:        txScope,
		EventPublisher: eventBus,
		Metrics:        metrics,
		Logger:         log,
	})
	orderService := tradeapp.NewOrderService(tradeapp.OrderServiceConfig{
		OrderRepo:      orderRepo,
		PaymentRepo:    paymentRepo,
		TxScope:        txScope,
		EventPublisher: eventBus,
		Logger:         log,
	})
	paymentService := financeapp.NewPaymentService(financeapp.PaymentServiceConfig{
		TxScope:        txScope,
		OrderRepo:      orderRepo,
		PaymentRepo:    paymentRepo,
		Gateway:        singPay,
		EventPublisher: eventBus,
		Metrics:        metrics,
		Logger:         log,
		CallbackURL:    cfg.HTTP.WebhookURL(finance.GatewaySingPay),
		Currency:       cfg.App.Currency,
	})
	refundService := financeapp.NewRefundService(financeapp.RefundServiceConfig{
		TxScope:        txScope,
		EventPublisher: eventBus,
		Metrics:        metrics,
		Logger:         log,
	})
	reconciler := financeapp.NewWebhookReconciler(financeapp.WebhookReconcilerConfig{
		TxScope:        txScope,
		PaymentRepo:    paymentRepo,
		Gateways:       []finance.MobileMoneyGateway{singPay},
		EventPublisher: eventBus,
		Metrics:        metrics,
		Logger:         log,
	})

	// HTTP
	middleware.SetupValidator()
	routerCfg := router.Config{
		HTTP:           cfg.HTTP,
		RequestTimeout: cfg.HTTP.WriteTimeout,
		Auth:           auth.NewJWTService(cfg.JWT),
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
			SkipPaths:   []string{"/health", cfg.Metrics.Path},
		},
		MetricsPath:      cfg.Metrics.Path,
		MetricsNamespace: cfg.Metrics.Namespace,
		Logger:           log,
	}
	if metrics != nil {
		routerCfg.Metrics = metrics.Handler()
		routerCfg.Registerer = metrics.Registry()
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		routerCfg.RateLimiter = limiter
	}

	engine := router.New(routerCfg, router.Handlers{
		Cart:    handler.NewCartHandler(cartService, cfg.App.Currency),
		Order:   handler.NewOrderHandler(checkoutService, orderService, cfg.App.Currency),
		Payment: handler.NewPaymentHandler(paymentService, refundService, cfg.App.Currency),
		Webhook: handler.NewWebhookHandler(reconciler),
		Health:  handler.NewHealthHandler(healthChecks(db, storeCloser)...),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// healthChecks probes the database and, when the token store runs on it, Redis
func healthChecks(db *persistence.Database, storeCloser io.Closer) []handler.HealthCheck {
	checks := []handler.HealthCheck{{
		Name:  "database",
		Check: func(context.Context) error { return db.Ping() },
	}}
	if rdb, ok := storeCloser.(*redis.Client); ok {
		checks = append(checks, handler.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return checks
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), componentShutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
