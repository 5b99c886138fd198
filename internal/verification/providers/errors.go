package providers

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for registry lookups
type ErrorCategory string

const (
	// ErrorTimeout indicates a bounded wait for a page state elapsed
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the registry returned a page that could not be used
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorProviderOutage indicates the registry could not be reached
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorContractMismatch indicates the registry form no longer has the
	// expected shape (missing input slots, missing submit control)
	ErrorContractMismatch ErrorCategory = "contract_mismatch"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps a per-batch lookup failure with normalized categorization.
// The pipeline never retries; Retryable only informs logs and metrics.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	State      State
	Message    string
	Underlying error
	Retryable  bool
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s] in %s: %s: %v", e.ProviderID, e.Category, e.State, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s] in %s: %s", e.ProviderID, e.Category, e.State, e.Message)
}

// Unwrap supports error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a new normalized provider error raised while the
// session was in state.
func NewProviderError(category ErrorCategory, providerID string, state State, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout || category == ErrorProviderOutage

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		State:      state,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}
