package router

import (
	"net/http"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/config"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/logger"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/handler"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by the router
type Handlers struct {
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
	Webhook *handler.WebhookHandler
	Health  *handler.HealthHandler
}

// Config holds everything the engine needs besides the handlers
type Config struct {
	HTTP           config.HTTPConfig
	APIVersion     string
	RequestTimeout time.Duration
	Auth           middleware.TokenValidator
	Tracing        middleware.TracingConfig
	// Metrics is served on MetricsPath when set
	Metrics          http.Handler
	MetricsPath      string
	MetricsNamespace string
	Registerer       prometheus.Registerer
	// RateLimiter is nil when rate limiting is disabled
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// New builds the gin engine with the global middleware chain, the public
// endpoints and the authenticated API group.
func New(cfg Config, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	quiet := []string{"/health", cfg.MetricsPath}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log, quiet...),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig(cfg.HTTP)),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	engine.Use(
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			Registerer: cfg.Registerer,
			Namespace:  cfg.MetricsNamespace,
			SkipPaths:  quiet,
		}),
		middleware.TracingWithConfig(cfg.Tracing),
	)
	if cfg.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Check)
	}
	if cfg.Metrics != nil {
		engine.GET(cfg.MetricsPath, gin.WrapH(cfg.Metrics))
	}
	if h.Webhook != nil {
		// gateways call back without a bearer token
		engine.POST("/webhooks/:gateway", h.Webhook.Handle)
	}

	r := NewRouter(engine, WithAPIVersion(cfg.APIVersion),
		WithMiddleware(
			middleware.JWTAuth(middleware.JWTMiddlewareConfig{Validator: cfg.Auth, Logger: log}),
			middleware.TracingAttributeInjector(),
		))
	if h.Cart != nil {
		r.Register(cartRoutes(h.Cart))
	}
	if h.Order != nil {
		r.Register(orderRoutes(h.Order))
	}
	if h.Payment != nil {
		r.Register(paymentRoutes(h.Payment))
	}
	r.Setup()

	engine.NoRoute(func(c *gin.Context) {
		(&handler.BaseHandler{}).NotFound(c, "Resource not found")
	})
	return engine
}

func corsConfig(h config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(h.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = h.CORSAllowOrigins
	}
	if len(h.CORSAllowMethods) > 0 {
		cors.AllowMethods = h.CORSAllowMethods
	}
	if len(h.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = h.CORSAllowHeaders
	}
	return cors
}

func cartRoutes(h *handler.CartHandler) *DomainGroup {
	return NewDomainGroup("cart", "/cart").
		GET("", h.Get).
		POST("/items", h.AddItem).
		PUT("/items/:itemId", h.UpdateItem).
		DELETE("/items/:itemId", h.RemoveItem).
		DELETE("/clear", h.Clear).
		POST("/validate", h.Validate)
}

func orderRoutes(h *handler.OrderHandler) *DomainGroup {
	return NewDomainGroup("orders", "/orders").
		POST("", h.Create).
		GET("", h.List).
		GET("/track/:orderNumber", h.Track).
		GET("/:id", h.Get).
		POST("/:id/cancel", h.Cancel)
}

func paymentRoutes(h *handler.PaymentHandler) *DomainGroup {
	return NewDomainGroup("payments", "/payments").
		POST("/orders/:orderId", h.Initiate).
		GET("/orders/:orderId/status", h.Status).
		POST("/:paymentId/refund", h.Refund)
}
