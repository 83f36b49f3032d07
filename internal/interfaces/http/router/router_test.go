package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	financeapp "github.com/gaug1c/ecommerce-backend/internal/application/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/auth"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/config"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/dto"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/handler"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubReconciler struct {
	got financeapp.WebhookPayload
}

func (s *stubReconciler) Reconcile(_ context.Context, p financeapp.WebhookPayload) (*financeapp.ReconcileResult, error) {
	s.got = p
	return &financeapp.ReconcileResult{Success: true, PaymentID: uuid.New(), PaymentStatus: finance.PaymentStatusCompleted}, nil
}

func testJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{Secret: "router-test-secret-of-32-characters", Issuer: "test"})
}

func newTestEngine(t *testing.T, mutate func(*Config)) (*gin.Engine, *stubReconciler) {
	t.Helper()
	reconciler := &stubReconciler{}
	reg := prometheus.NewRegistry()
	cfg := Config{
		HTTP:             config.HTTPConfig{MaxBodySize: 1 << 10},
		Auth:             testJWT(),
		Metrics:          promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		MetricsNamespace: "test",
		Registerer:       reg,
		RequestTimeout:   time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	engine := New(cfg, Handlers{
		Cart:    handler.NewCartHandler(nil, "FCFA"),
		Order:   handler.NewOrderHandler(nil, nil, "FCFA"),
		Payment: handler.NewPaymentHandler(nil, nil, "FCFA"),
		Webhook: handler.NewWebhookHandler(reconciler),
		Health:  handler.NewHealthHandler(),
	})
	return engine, reconciler
}

func serve(engine *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestNew_RegistersRoutes(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	got := map[string]bool{}
	for _, r := range engine.Routes() {
		got[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /v1/cart",
		"POST /v1/cart/items",
		"PUT /v1/cart/items/:itemId",
		"DELETE /v1/cart/items/:itemId",
		"DELETE /v1/cart/clear",
		"POST /v1/cart/validate",
		"POST /v1/orders",
		"GET /v1/orders",
		"GET /v1/orders/:id",
		"POST /v1/orders/:id/cancel",
		"GET /v1/orders/track/:orderNumber",
		"POST /v1/payments/orders/:orderId",
		"GET /v1/payments/orders/:orderId/status",
		"POST /v1/payments/:paymentId/refund",
		"POST /webhooks/:gateway",
		"GET /health",
		"GET /metrics",
	}
	for _, route := range want {
		assert.True(t, got[route], "missing route %s", route)
	}
}

func TestNew_APIRequiresBearerToken(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	rec := serve(engine, http.MethodGet, "/v1/cart", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestNew_AuthenticatedRequestReachesHandler(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	token, err := testJWT().GenerateAccessToken(auth.GenerateTokenInput{UserID: uuid.New(), TTL: time.Minute})
	require.NoError(t, err)

	// a malformed id is rejected by the handler before any service call
	rec := serve(engine, http.MethodGet, "/v1/orders/not-a-uuid", "", token)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order not found")
}

func TestNew_WebhookIsPublic(t *testing.T) {
	engine, reconciler := newTestEngine(t, nil)

	rec := serve(engine, http.MethodPost, "/webhooks/singpay",
		`{"reference":"SP-abc","transaction_id":123456,"status":"SUCCESS"}`, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SingPay webhook processed successfully")
	assert.Equal(t, "singpay", reconciler.got.Gateway)
	assert.Equal(t, "123456", reconciler.got.TransactionID)
}

func TestNew_HealthAndMetrics(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	rec := serve(engine, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	// one measured request so the request counter has a series
	serve(engine, http.MethodGet, "/v1/cart", "", "")
	rec = serve(engine, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestNew_UnknownRoute(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	rec := serve(engine, http.MethodGet, "/nope", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), dto.ErrCodeNotFound)
}

func TestNew_RateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	engine, _ := newTestEngine(t, func(c *Config) { c.RateLimiter = limiter })

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodGet, "/health", "", "").Code)
}

func TestNew_BodyLimit(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	rec := serve(engine, http.MethodPost, "/webhooks/singpay", `{"reference":"`+strings.Repeat("x", 2048)+`"}`, "")

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	calls := 0
	r := NewRouter(engine, WithAPIVersion("v2"), WithMiddleware(func(c *gin.Context) {
		calls++
		c.Next()
	}))
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.Setup()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/test/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.Equal(t, 1, calls)
}

func TestDomainGroup(t *testing.T) {
	g := NewDomainGroup("orders", "/orders").
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) }).
		PUT("/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) }).
		DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, "orders", g.Name())
	assert.Equal(t, "/orders", g.Prefix())

	engine := gin.New()
	g.RegisterRoutes(engine.Group("/v1"))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/v1/orders", http.StatusOK},
		{http.MethodPut, "/v1/orders/1", http.StatusAccepted},
		{http.MethodDelete, "/v1/orders/1", http.StatusNoContent},
		{http.MethodPost, "/v1/orders", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
