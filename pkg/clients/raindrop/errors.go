package raindrop

import (
	"errors"
	"fmt"
	"time"
)

// Error represents an error from the Raindrop.io API. A zero StatusCode
// means the request never produced a response.
type Error struct {
	StatusCode int           `json:"status_code"`
	Message    string        `json:"message"`
	Body       string        `json:"body,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("raindrop: %s", e.Message)
	}
	return fmt.Sprintf("raindrop: %s (status: %d)", e.Message, e.StatusCode)
}

// IsRetryable returns true if the error might be resolved by retrying
func (e *Error) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// IsClientError returns true if the error is due to client input
func (e *Error) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError returns true if the error is due to server issues
func (e *Error) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsAuthError returns true if the error is related to authentication
func (e *Error) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsRateLimited returns true if the error is due to rate limiting
func (e *Error) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsNotFound returns true if the bookmark was not found
func (e *Error) IsNotFound() bool {
	return e.StatusCode == 404
}

// DelayHint reports the server-requested wait from a Retry-After header.
func (e *Error) DelayHint() time.Duration {
	return e.RetryAfter
}

// Common error types
var (
	ErrUnauthorized       = &Error{StatusCode: 401, Message: "invalid or missing token"}
	ErrAccessDenied       = &Error{StatusCode: 403, Message: "access denied"}
	ErrNotFound           = &Error{StatusCode: 404, Message: "bookmark not found"}
	ErrRateLimited        = &Error{StatusCode: 429, Message: "rate limited"}
	ErrServerError        = &Error{StatusCode: 500, Message: "internal server error"}
	ErrServiceUnavailable = &Error{StatusCode: 503, Message: "service unavailable"}
)

// IsRaindropError extracts a Raindrop API error from anywhere in the chain
func IsRaindropError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if e, ok := IsRaindropError(err); ok {
		return e.IsRetryable()
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	if e, ok := IsRaindropError(err); ok {
		return e.IsAuthError()
	}
	return false
}

// IsRateLimitedError checks if an error is due to rate limiting
func IsRateLimitedError(err error) bool {
	if e, ok := IsRaindropError(err); ok {
		return e.IsRateLimited()
	}
	return false
}

// IsNotFoundError checks if an error means the bookmark no longer exists
func IsNotFoundError(err error) bool {
	if e, ok := IsRaindropError(err); ok {
		return e.IsNotFound()
	}
	return false
}
