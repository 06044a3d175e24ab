package model

import "fmt"

// ProviderError represents a failure reported by an LLM provider. It
// distinguishes transient failures, which a caller may retry with
// backoff, from permanent failures that need user intervention (a bad
// API key, an exhausted quota).
type ProviderError struct {
	// Provider names the adapter that produced the error:
	// "google", "openai", "anthropic".
	Provider string

	// Code is the machine-readable error code for programmatic
	// handling.
	Code string

	// Message is the human-readable error message.
	Message string

	// Retryable is true for transient failures (rate limits,
	// timeouts, 5xx responses) and false for permanent ones.
	Retryable bool
}

// Error codes shared across provider adapters.
const (
	ErrCodeRateLimited   = "rate_limited"
	ErrCodeTimeout       = "timeout"
	ErrCodeInvalidAPIKey = "invalid_api_key"
	ErrCodeQuotaExceeded = "quota_exceeded"
	ErrCodeServerError   = "server_error"
	ErrCodeNetwork       = "network_error"
	ErrCodeSafetyBlocked = "safety_blocked"
	ErrCodeEmptyResponse = "empty_response"
	ErrCodeRequestFailed = "request_failed"
)

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// IsRetryable reports whether the operation can be retried with
// backoff.
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}
