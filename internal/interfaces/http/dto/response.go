package dto

// Response is the envelope of every API response
type Response struct {
	Success  bool                `json:"success"`
	Message  string              `json:"message"`
	Data     any                 `json:"data,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Error    *ErrorInfo          `json:"error,omitempty"`
	Currency string              `json:"currency,omitempty"`
	Meta     *Meta               `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries request correlation data
type Meta struct {
	RequestID string `json:"request_id,omitempty"`
}

func newMeta(requestID string) *Meta {
	if requestID == "" {
		return nil
	}
	return &Meta{RequestID: requestID}
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(message string, data any) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewMoneyResponse creates a success response for a payload holding amounts
func NewMoneyResponse(message string, data any, currency string) Response {
	r := NewSuccessResponse(message, data)
	r.Currency = currency
	return r
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
		Meta: newMeta(requestID),
	}
}

// NewValidationErrorResponse creates a response listing rejected fields
func NewValidationErrorResponse(message, requestID string, fields map[string][]string) Response {
	r := NewErrorResponse(ErrCodeValidation, message, requestID)
	r.Errors = fields
	return r
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
