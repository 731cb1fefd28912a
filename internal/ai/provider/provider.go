// Package provider defines the language model abstraction the categorizer
// calls into. Concrete providers live in subpackages, one per vendor SDK.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// LanguageModel defines the interface that all LLM providers must implement
type LanguageModel interface {
	// Generate produces a complete response (blocking)
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// ID returns the unique identifier for this model
	ID() string
}

// GenerateRequest contains all parameters for generating text
type GenerateRequest struct {
	// Prompt is the single user turn sent to the model
	Prompt string `json:"prompt"`

	// System is an optional system prompt
	System string `json:"system,omitempty"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float32 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`
}

// GenerateResponse is a completed model call
type GenerateResponse struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Model        string `json:"model,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Usage tracks token consumption
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another call
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ErrEmptyResponse indicates the model returned no usable content
var ErrEmptyResponse = errors.New("empty response from model")

// APIError normalizes failures across provider SDKs. A zero StatusCode
// means the request never reached the API.
type APIError struct {
	Provider   string `json:"provider"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s (status: %d)", e.Provider, e.Message, e.StatusCode)
}

// IsRetryable returns true if the error might be resolved by retrying
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// IsAuthError returns true if the error is related to authentication
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsRateLimited returns true if the error is due to rate limiting
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsAuthError checks if an error is a provider authentication error
func IsAuthError(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.IsAuthError()
	}
	return false
}

// IsRateLimitedError checks if an error is due to provider rate limiting
func IsRateLimitedError(err error) bool {
	var e *APIError
	if errors.As(err, &e) {
		return e.IsRateLimited()
	}
	return false
}
