package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gaug1c/ecommerce-backend/internal/domain/finance"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/cache"
	"github.com/gaug1c/ecommerce-backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Gateway operations, used as metric labels and in errors
const (
	OpToken     = "token"
	OpInitiate  = "initiate"
	OpStatus    = "status"
	OpByRef     = "status_by_reference"
	maxBodySize = 1 << 20
)

// providerPaths maps a carrier to its collection endpoint
var providerPaths = map[finance.Provider]string{
	finance.ProviderAirtel: "/74/paiement",
	finance.ProviderMoov:   "/62/paiement",
}

// GatewayError is returned for every failed gateway call. Body holds the
// raw response so operators can see what the gateway said.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	b.WriteString(" (op=")
	b.WriteString(e.Op)
	if e.StatusCode > 0 {
		b.WriteString(" status=")
		b.WriteString(strconv.Itoa(e.StatusCode))
	}
	b.WriteString(")")
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// TokenStore caches gateway access tokens until they expire
type TokenStore interface {
	// Get returns the cached token, or ok=false when absent or expired
	Get(ctx context.Context, key string) (token string, ok bool, err error)
	// Set stores a token for ttl
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

// SingPayClient implements finance.MobileMoneyGateway against the SingPay API.
// Calls are bounded by the client timeout and are never retried.
type SingPayClient struct {
	config     SingPayConfig
	httpClient *http.Client
	tokens     TokenStore
	flight     singleflight.Group
	metrics    *telemetry.BusinessMetrics
	logger     *zap.Logger
}

// Option customises a SingPayClient
type Option func(*SingPayClient)

// WithTokenStore replaces the in-memory token cache
func WithTokenStore(store TokenStore) Option {
	return func(c *SingPayClient) {
		if store != nil {
			c.tokens = store
		}
	}
}

// WithMetrics records request durations
func WithMetrics(m *telemetry.BusinessMetrics) Option {
	return func(c *SingPayClient) {
		c.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *SingPayClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is forced to the
// configured value when unset.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *SingPayClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewSingPayClient creates a new SingPay client
func NewSingPayClient(cfg SingPayConfig, opts ...Option) (*SingPayClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &SingPayClient{
		config:     cfg,
		httpClient: &http.Client{},
		tokens:     cache.NewMemoryTokenStore(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = cfg.Timeout
	}
	return c, nil
}

// Name implements finance.MobileMoneyGateway
func (c *SingPayClient) Name() string {
	return finance.GatewaySingPay
}

// Warmup implements finance.MobileMoneyGateway
func (c *SingPayClient) Warmup(ctx context.Context) error {
	_, err := c.AccessToken(ctx)
	return err
}

// AccessToken returns a cached token or fetches a new one. Concurrent
// callers share a single fetch, which outlives the caller that started it
// and is bounded by the client timeout instead.
func (c *SingPayClient) AccessToken(ctx context.Context) (string, error) {
	key := c.config.tokenCacheKey()
	if tok, ok := c.cachedToken(ctx, key); ok {
		return tok, nil
	}

	ch := c.flight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := c.detached(ctx)
		defer cancel()

		if tok, ok := c.cachedToken(fetchCtx, key); ok {
			return tok, nil
		}
		tok, ttl, err := c.fetchToken(fetchCtx)
		if err != nil {
			return "", err
		}
		if err := c.tokens.Set(fetchCtx, key, tok, ttl); err != nil {
			c.logger.Warn("Failed to cache gateway token", zap.Error(err))
		}
		return tok, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &GatewayError{Op: OpToken, Err: fmt.Errorf("%w: %w", finance.ErrGatewayAuth, ctx.Err())}
	}
}

// detached keeps ctx values such as the trace span but drops its
// cancellation, bounding the work by the client timeout instead
func (c *SingPayClient) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.httpClient.Timeout > 0 {
		return context.WithTimeout(ctx, c.httpClient.Timeout)
	}
	return context.WithCancel(ctx)
}

func (c *SingPayClient) cachedToken(ctx context.Context, key string) (string, bool) {
	tok, ok, err := c.tokens.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Gateway token cache unavailable", zap.Error(err))
		return "", false
	}
	return tok, ok
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   flexString `json:"expires_in"`
}

func (c *SingPayClient) fetchToken(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &GatewayError{Op: OpToken, Err: fmt.Errorf("%w: %v", finance.ErrGatewayAuth, err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	status, body, err := c.send(req, OpToken)
	if err != nil {
		return "", 0, &GatewayError{Op: OpToken, Err: fmt.Errorf("%w: %v", finance.ErrGatewayAuth, err)}
	}
	if status < 200 || status >= 300 {
		return "", 0, &GatewayError{Op: OpToken, StatusCode: status, Body: string(body), Err: finance.ErrGatewayAuth}
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" {
		return "", 0, &GatewayError{Op: OpToken, StatusCode: status, Body: string(body), Err: finance.ErrGatewayAuth}
	}

	ttl := c.config.TokenTTL
	if secs, err := strconv.Atoi(string(resp.ExpiresIn)); err == nil && secs > 0 {
		if reported := time.Duration(secs)*time.Second - tokenExpiryMargin; reported > 0 && reported < ttl {
			ttl = reported
		}
	}
	return resp.AccessToken, ttl, nil
}

type initiateBody struct {
	Amount      string `json:"amount"`
	Reference   string `json:"reference"`
	Phone       string `json:"phone"`
	CallbackURL string `json:"callbackUrl"`
}

// InitiatePayment implements finance.MobileMoneyGateway
func (c *SingPayClient) InitiatePayment(ctx context.Context, req *finance.InitiatePaymentRequest) (*finance.InitiatePaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path, ok := providerPaths[req.Provider]
	if !ok {
		return nil, finance.ErrUnsupportedProvider
	}

	ctx, span := telemetry.StartSpan(ctx, "singpay.initiate",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("payment.provider", req.Provider.String()),
		telemetry.WithAttribute("payment.reference", req.Reference))
	defer span.End()

	payload := initiateBody{
		Amount:      req.Amount.String(),
		Reference:   req.Reference,
		Phone:       req.Phone,
		CallbackURL: req.CallbackURL,
	}
	body, err := c.doRequest(ctx, OpInitiate, http.MethodPost, path, payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	txID := extractTransactionID(body)
	telemetry.SetAttributes(span, "payment.transaction_id", txID)
	telemetry.SetOK(span)

	c.logger.Info("Gateway payment initiated",
		zap.String("provider", req.Provider.String()),
		zap.String("reference", req.Reference),
		zap.String("transaction_id", txID))

	return &finance.InitiatePaymentResponse{
		TransactionID: txID,
		RawResponse:   string(body),
	}, nil
}

// GetStatus implements finance.MobileMoneyGateway
func (c *SingPayClient) GetStatus(ctx context.Context, query finance.StatusQuery) (*finance.TransactionStatus, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	op, path := OpStatus, "/transaction/api/status/"+url.PathEscape(query.TransactionID)
	if query.TransactionID == "" {
		op, path = OpByRef, "/transaction/api/search/by-reference/"+url.PathEscape(query.Reference)
	}

	ctx, span := telemetry.StartSpan(ctx, "singpay."+op, telemetry.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	body, err := c.doRequest(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	parsed, err := parseStatusResponse(body)
	if err != nil {
		gwErr := &GatewayError{Op: op, StatusCode: http.StatusOK, Body: string(body), Err: finance.ErrGatewayInvalidResponse}
		telemetry.RecordError(span, gwErr)
		return nil, gwErr
	}
	status := parsed.status()
	if status == "" {
		gwErr := &GatewayError{Op: op, StatusCode: http.StatusOK, Body: string(body), Err: finance.ErrGatewayInvalidResponse}
		telemetry.RecordError(span, gwErr)
		return nil, gwErr
	}

	txID := extractTransactionID(body)
	if txID == "" {
		txID = query.TransactionID
	}
	ref := parsed.reference()
	if ref == "" {
		ref = query.Reference
	}
	telemetry.SetAttributes(span, "payment.status", status)
	telemetry.SetOK(span)

	return &finance.TransactionStatus{
		TransactionID: txID,
		Reference:     ref,
		Status:        status,
		RawResponse:   string(body),
	}, nil
}

// doRequest sends an authenticated JSON request and returns the 2xx body
func (c *SingPayClient) doRequest(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("singpay: encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIURL+path, reqBody)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: fmt.Errorf("%w: %v", finance.ErrGatewayRequest, err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	status, body, err := c.send(req, op)
	if err != nil {
		return nil, &GatewayError{Op: op, Err: fmt.Errorf("%w: %v", finance.ErrGatewayRequest, err)}
	}
	if status < 200 || status >= 300 {
		c.logger.Warn("Gateway request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.ByteString("body", body))
		return nil, &GatewayError{Op: op, StatusCode: status, Body: string(body), Err: finance.ErrGatewayRequest}
	}
	return body, nil
}

// send executes one HTTP exchange and records its duration
func (c *SingPayClient) send(req *http.Request, op string) (int, []byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveGatewayRequest(op, time.Since(start))
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

var _ finance.MobileMoneyGateway = (*SingPayClient)(nil)
