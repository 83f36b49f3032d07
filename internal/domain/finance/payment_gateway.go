package finance

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Payment Gateway Errors
// ---------------------------------------------------------------------------

var (
	// ErrGatewayAuth means the OAuth client-credentials token could not be obtained
	ErrGatewayAuth = errors.New("payment: gateway authentication failed")
	// ErrGatewayRequest means the gateway answered with a non-success status or was unreachable
	ErrGatewayRequest = errors.New("payment: gateway request failed")
	// ErrGatewayInvalidResponse means the gateway answered 2xx with an unusable body
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
	// ErrUnsupportedProvider means no initiation endpoint exists for the carrier
	ErrUnsupportedProvider = errors.New("payment: provider not supported")
	// ErrInvalidStatusQuery means neither a transaction id nor a reference was given
	ErrInvalidStatusQuery = errors.New("payment: status query needs a transaction id or a reference")
)

// GatewaySingPay is the name the mobile-money gateway is registered under
const GatewaySingPay = "singpay"

// Provider is the mobile-money carrier that collects the funds
type Provider string

const (
	ProviderAirtel Provider = "AIRTEL"
	ProviderMoov   Provider = "MOOV"
)

// IsValid returns true if the carrier is supported
func (p Provider) IsValid() bool {
	switch p {
	case ProviderAirtel, ProviderMoov:
		return true
	default:
		return false
	}
}

// String returns the string representation of Provider
func (p Provider) String() string {
	return string(p)
}

// GatewayOutcome is the local reading of an authoritative gateway status
type GatewayOutcome string

const (
	GatewayOutcomeSuccess GatewayOutcome = "success"
	GatewayOutcomeFailed  GatewayOutcome = "failed"
	GatewayOutcomePending GatewayOutcome = "pending"
	GatewayOutcomeUnknown GatewayOutcome = "unknown"
)

// MapGatewayStatus maps a raw gateway status, case-insensitively
func MapGatewayStatus(raw string) GatewayOutcome {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "SUCCESSFUL", "COMPLETED":
		return GatewayOutcomeSuccess
	case "FAILED", "CANCELLED", "CANCELED", "REJECTED":
		return GatewayOutcomeFailed
	case "PENDING", "PROCESSING", "INITIATED":
		return GatewayOutcomePending
	default:
		return GatewayOutcomeUnknown
	}
}

// InitiatePaymentRequest asks the gateway to push a USSD prompt to the payer
type InitiatePaymentRequest struct {
	Provider    Provider
	Amount      decimal.Decimal
	Reference   string
	Phone       string
	CallbackURL string
}

// Validate checks the request before any network call
func (r *InitiatePaymentRequest) Validate() error {
	if !r.Provider.IsValid() {
		return ErrUnsupportedProvider
	}
	if !r.Amount.IsPositive() {
		return errors.New("payment: amount must be positive")
	}
	if r.Reference == "" {
		return errors.New("payment: reference is required")
	}
	if r.Phone == "" {
		return errors.New("payment: phone is required")
	}
	return nil
}

// InitiatePaymentResponse carries the gateway's own transaction id
type InitiatePaymentResponse struct {
	TransactionID string
	RawResponse   string
}

// StatusQuery identifies a transaction by gateway id or by our reference.
// TransactionID wins when both are set.
type StatusQuery struct {
	TransactionID string
	Reference     string
}

// Validate checks that at least one identifier is present
func (q StatusQuery) Validate() error {
	if q.TransactionID == "" && q.Reference == "" {
		return ErrInvalidStatusQuery
	}
	return nil
}

// TransactionStatus is the gateway's authoritative view of a transaction
type TransactionStatus struct {
	TransactionID string
	Reference     string
	Status        string
	RawResponse   string
}

// Outcome maps the raw status
func (s *TransactionStatus) Outcome() GatewayOutcome {
	return MapGatewayStatus(s.Status)
}

// MobileMoneyGateway is the outbound port to the external mobile-money API.
// Implementations apply a bounded timeout and never retry.
type MobileMoneyGateway interface {
	// Name returns the gateway name used in webhook routes
	Name() string

	// Warmup makes sure a valid access token is cached
	Warmup(ctx context.Context) error

	// InitiatePayment starts a collection on the provider-specific endpoint
	InitiatePayment(ctx context.Context, req *InitiatePaymentRequest) (*InitiatePaymentResponse, error)

	// GetStatus queries the authoritative status of a transaction
	GetStatus(ctx context.Context, query StatusQuery) (*TransactionStatus, error)
}
