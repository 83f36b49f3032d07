//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	financeapp "github.com/gaug1c/ecommerce-backend/internal/application/finance"
	tradeapp "github.com/gaug1c/ecommerce-backend/internal/application/trade"
	"github.com/gaug1c/ecommerce-backend/internal/domain/catalog"
	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/domain/shared"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/auth"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/cache"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/config"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/event"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/payment"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/persistence"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/persistence/models"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/handler"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/gaug1c/ecommerce-backend/internal/interfaces/http/router"
	"github.com/gaug1c/ecommerce-backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret = "integration-secret-at-least-32-chars"
	testCurrency  = "FCFA"
)

// fakeSingPay speaks enough of the SingPay API for the flows: OAuth token,
// collection on both carriers, and status lookups by id or by reference.
type fakeSingPay struct {
	server *httptest.Server

	mu       sync.Mutex
	seq      int
	byTxID   map[string]*fakeTransaction
	byRef    map[string]*fakeTransaction
	initFail bool
}

type fakeTransaction struct {
	ID        string
	Reference string
	Amount    string
	Phone     string
	Callback  string
	Status    string
}

func newFakeSingPay(t *testing.T) *fakeSingPay {
	t.Helper()
	f := &fakeSingPay{
		byTxID: map[string]*fakeTransaction{},
		byRef:  map[string]*fakeTransaction{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"it-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("POST /api/{carrier}/paiement", f.collect)
	mux.HandleFunc("GET /api/transaction/api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.writeStatus(w, f.lookup(r.PathValue("id"), ""))
	})
	mux.HandleFunc("GET /api/transaction/api/search/by-reference/{ref}", func(w http.ResponseWriter, r *http.Request) {
		f.writeStatus(w, f.lookup("", r.PathValue("ref")))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSingPay) collect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount      string `json:"amount"`
		Reference   string `json:"reference"`
		Phone       string `json:"phone"`
		CallbackURL string `json:"callbackUrl"`
	}
	if r.Header.Get("Authorization") != "Bearer it-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initFail {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"operator unreachable"}`))
		return
	}
	f.seq++
	tx := &fakeTransaction{
		ID:        fmt.Sprintf("TX-%d", f.seq),
		Reference: body.Reference,
		Amount:    body.Amount,
		Phone:     body.Phone,
		Callback:  body.CallbackURL,
		Status:    "Initiated",
	}
	f.byTxID[tx.ID] = tx
	f.byRef[tx.Reference] = tx

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "Initiated",
		"transaction": map[string]any{"id": tx.ID, "reference": tx.Reference, "status": tx.Status},
	})
}

func (f *fakeSingPay) lookup(txID, ref string) *fakeTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if txID != "" {
		return f.byTxID[txID]
	}
	return f.byRef[ref]
}

func (f *fakeSingPay) writeStatus(w http.ResponseWriter, tx *fakeTransaction) {
	if tx == nil {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"transaction not found"}`))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"transaction": map[string]any{"id": tx.ID, "reference": tx.Reference, "status": tx.Status},
	})
}

// settle sets the status the gateway reports for a transaction
func (f *fakeSingPay) settle(txID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byTxID[txID].Status = status
}

func (f *fakeSingPay) transaction(txID string) fakeTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byTxID[txID]
}

func (f *fakeSingPay) failInitiations(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initFail = fail
}

// testApp is the HTTP surface wired to PostgreSQL and the fake gateway
type testApp struct {
	db      *TestDB
	engine  *gin.Engine
	gateway *fakeSingPay
	events  *testutil.EventRecorder
	jwt     *auth.JWTService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	tdb := NewTestDB(t)
	gw := newFakeSingPay(t)

	singPay, err := payment.NewSingPayClient(payment.SingPayConfig{
		APIURL:       gw.server.URL + "/api",
		TokenURL:     gw.server.URL + "/oauth/token",
		ClientID:     "client",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	}, payment.WithTokenStore(cache.NewMemoryTokenStore()))
	require.NoError(t, err)

	bus := event.NewInMemoryEventBus(nil)
	events := testutil.NewEventRecorder()
	bus.Subscribe(events)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	db := tdb.DB
	productRepo := persistence.NewGormProductRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	txScope := persistence.NewGormTransactionScope(db)
	httpCfg := config.HTTPConfig{PublicBaseURL: "https://shop.example.ga"}

	cartService := tradeapp.NewCartService(persistence.NewGormCartRepository(db), productRepo, nil)
	checkoutService := tradeapp.NewCheckoutService(tradeapp.CheckoutServiceConfig{TxScope: txScope, EventPublisher: bus})
	orderService := tradeapp.NewOrderService(tradeapp.OrderServiceConfig{
		OrderRepo:      orderRepo,
		PaymentRepo:    paymentRepo,
		TxScope:        txScope,
		EventPublisher: bus,
	})
	paymentService := financeapp.NewPaymentService(financeapp.PaymentServiceConfig{
		TxScope:        txScope,
		OrderRepo:      orderRepo,
		PaymentRepo:    paymentRepo,
		Gateway:        singPay,
		EventPublisher: bus,
		CallbackURL:    httpCfg.WebhookURL(finance.GatewaySingPay),
		Currency:       testCurrency,
	})
	refundService := financeapp.NewRefundService(financeapp.RefundServiceConfig{TxScope: txScope, EventPublisher: bus})
	reconciler := financeapp.NewWebhookReconciler(financeapp.WebhookReconcilerConfig{
		TxScope:        txScope,
		PaymentRepo:    paymentRepo,
		Gateways:       []finance.MobileMoneyGateway{singPay},
		EventPublisher: bus,
	})

	jwtService := auth.NewJWTService(config.JWTConfig{Secret: testJWTSecret, Issuer: "integration"})
	engine := router.New(router.Config{HTTP: httpCfg, Auth: jwtService}, router.Handlers{
		Cart:    handler.NewCartHandler(cartService, testCurrency),
		Order:   handler.NewOrderHandler(checkoutService, orderService, testCurrency),
		Payment: handler.NewPaymentHandler(paymentService, refundService, testCurrency),
		Webhook: handler.NewWebhookHandler(reconciler),
		Health: handler.NewHealthHandler(handler.HealthCheck{Name: "database", Check: func(ctx context.Context) error {
			return tdb.SqlDB.PingContext(ctx)
		}}),
	})

	return &testApp{db: tdb, engine: engine, gateway: gw, events: events, jwt: jwtService}
}

// client returns an API client authenticated as userID
func (a *testApp) client(t *testing.T, userID uuid.UUID, roles ...string) *testutil.APIClient {
	t.Helper()
	token, err := a.jwt.GenerateAccessToken(auth.GenerateTokenInput{UserID: userID, Roles: roles, TTL: time.Hour})
	require.NoError(t, err)
	return testutil.NewAPIClient(t, a.engine, token)
}

// webhook posts a gateway callback without credentials
func (a *testApp) webhook(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.NewAPIClient(t, a.engine, "").Do(http.MethodPost, "/webhooks/singpay", body)
}

func (a *testApp) seedProduct(t *testing.T, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Price:      decimal.NewFromInt(price),
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, a.db.DB.Create(models.ProductModelFromDomain(p)).Error)
	return p
}

func (a *testApp) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var m models.ProductModel
	require.NoError(t, a.db.DB.First(&m, "id = ?", id).Error)
	return m.Stock
}

func (a *testApp) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.DB.Model(model).Count(&n).Error)
	return n
}
