package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput            = "INVALID_INPUT"
	ErrCodeUnauthorized            = "UNAUTHORIZED"
	ErrCodeUpstreamUnavailable     = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamInvalidResponse = "UPSTREAM_INVALID_RESPONSE"
	ErrCodeInternal                = "INTERNAL_ERROR"

	// LLM-related error codes. These never reach the HTTP status; they are
	// folded into data.extractionError.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
)

// ErrorResponse is the JSON body written for top-level failures.
// Code is omitted for the authentication rejection, whose body is fixed.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// UnauthorizedResponse is the exact body returned on a credential mismatch.
var UnauthorizedResponse = ErrorResponse{Error: "Unauthorized"}

// ProxyError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ProxyError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ProxyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

// NewProxyError creates a new ProxyError.
func NewProxyError(code, message string, err error) *ProxyError {
	return &ProxyError{Code: code, Message: message, Err: err}
}

// ToResponse converts an internal error to an API-facing ErrorResponse.
func (e *ProxyError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Code: e.Code}
}
