package payment

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every call made to the gateway
	DefaultTimeout = 30 * time.Second
	// DefaultTokenTTL is how long an access token is reused
	DefaultTokenTTL = 3500 * time.Second
	// tokenExpiryMargin is subtracted from a server-reported expires_in
	tokenExpiryMargin = 100 * time.Second
)

// SingPayConfig contains the credentials and endpoints of the SingPay API
type SingPayConfig struct {
	// APIURL is the base URL of the payment API, without trailing slash
	APIURL string
	// TokenURL is the OAuth client-credentials endpoint
	TokenURL string
	// ClientID is the OAuth client id
	ClientID string
	// ClientSecret is the OAuth client secret
	ClientSecret string
	// Timeout bounds every HTTP call. Zero means DefaultTimeout.
	Timeout time.Duration
	// TokenTTL is the token cache lifetime. Zero means DefaultTokenTTL.
	TokenTTL time.Duration
}

// Errors for configuration validation
var (
	ErrSingPayMissingAPIURL       = errors.New("singpay: missing API URL")
	ErrSingPayInvalidAPIURL       = errors.New("singpay: API URL must be an absolute http(s) URL")
	ErrSingPayMissingTokenURL     = errors.New("singpay: missing token URL")
	ErrSingPayInvalidTokenURL     = errors.New("singpay: token URL must be an absolute http(s) URL")
	ErrSingPayMissingClientID     = errors.New("singpay: missing client ID")
	ErrSingPayMissingClientSecret = errors.New("singpay: missing client secret")
	ErrSingPayInvalidTimeout      = errors.New("singpay: timeout must not be negative")
)

// Validate validates the configuration
func (c *SingPayConfig) Validate() error {
	if c.APIURL == "" {
		return ErrSingPayMissingAPIURL
	}
	if !isHTTPURL(c.APIURL) {
		return ErrSingPayInvalidAPIURL
	}
	if c.TokenURL == "" {
		return ErrSingPayMissingTokenURL
	}
	if !isHTTPURL(c.TokenURL) {
		return ErrSingPayInvalidTokenURL
	}
	if c.ClientID == "" {
		return ErrSingPayMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrSingPayMissingClientSecret
	}
	if c.Timeout < 0 || c.TokenTTL < 0 {
		return ErrSingPayInvalidTimeout
	}
	return nil
}

// withDefaults fills zero durations and trims the API base URL
func (c SingPayConfig) withDefaults() SingPayConfig {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	return c
}

// tokenCacheKey identifies the token of one OAuth client
func (c SingPayConfig) tokenCacheKey() string {
	return "singpay:token:" + c.ClientID
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
