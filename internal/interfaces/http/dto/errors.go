package dto

import "net/http"

// Error codes returned in the error envelope. Domain errors keep their own
// code; the rest are produced by the HTTP layer.
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeConcurrency        = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable        = "SERVICE_UNAVAILABLE"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	ErrCodeOrderNotPayable    = "ORDER_NOT_PAYABLE"
	ErrCodeDuplicatePayment   = "DUPLICATE_PAYMENT"
	ErrCodeNotRefundable      = "NOT_REFUNDABLE"
	ErrCodeInitiationFailed   = "PAYMENT_INITIATION_FAILED"
	ErrCodeInvalidPayload     = "INVALID_PAYLOAD"
	ErrCodeReconciliation     = "RECONCILIATION_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// rejected input
	ErrCodeValidation:   http.StatusUnprocessableEntity,
	ErrCodeInvalidInput: http.StatusUnprocessableEntity,
	ErrCodeBadRequest:   http.StatusBadRequest,

	// auth
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeInvalidToken: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// resources
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeConcurrency:   http.StatusConflict,

	// checkout and payment rules
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeEmptyCart:          http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeProductUnavailable: http.StatusUnprocessableEntity,
	ErrCodeOrderNotPayable:    http.StatusNotFound,
	ErrCodeDuplicatePayment:   http.StatusUnprocessableEntity,
	ErrCodeNotRefundable:      http.StatusUnprocessableEntity,
	ErrCodeInitiationFailed:   http.StatusInternalServerError,

	// webhook
	ErrCodeInvalidPayload: http.StatusBadRequest,
	ErrCodeReconciliation: http.StatusInternalServerError,

	// transport
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
