// Package contract holds reusable checks every registry session must pass.
// Session implementations run these against a fake registry in their tests.
package contract

import (
	"context"
	"slices"
	"testing"

	"vatcheck/internal/verification/ports"
	"vatcheck/internal/verification/providers"
)

// ContractTest defines a lookup that must produce a results page
type ContractTest struct {
	Name         string
	Identifiers  []string
	ValidateFunc func(page *providers.Page) error
}

// ContractSuite is a collection of contract tests for a session.
// The session must already be open; the suite never closes it.
type ContractSuite struct {
	ProviderID string
	Session    ports.Session
	Tests      []ContractTest
}

// Run executes all contract tests in the suite
func (s *ContractSuite) Run(t *testing.T) {
	for _, test := range s.Tests {
		t.Run(test.Name, func(t *testing.T) {
			page, err := s.Session.Lookup(context.Background(), test.Identifiers)
			if err != nil {
				t.Fatalf("session lookup failed: %v", err)
			}
			if page == nil {
				t.Fatal("session returned nil page without error")
			}

			if page.ProviderID != s.ProviderID {
				t.Errorf("expected provider ID %s, got %s", s.ProviderID, page.ProviderID)
			}

			// Identifiers must come back in slot order so compliance stays positional
			if !slices.Equal(page.Identifiers, test.Identifiers) {
				t.Errorf("expected identifiers %v, got %v", test.Identifiers, page.Identifiers)
			}

			if page.HTML == "" {
				t.Error("HTML not captured")
			}

			if page.CapturedAt.IsZero() {
				t.Error("CapturedAt not set")
			}

			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(page); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
}

// CapabilityTest validates that session capabilities are correctly declared
type CapabilityTest struct {
	Session ports.Session
}

// Run executes a capability test
func (ct *CapabilityTest) Run(t *testing.T) {
	caps := ct.Session.Capabilities()

	if caps.Protocol == "" {
		t.Error("protocol not set")
	}
	if caps.Version == "" {
		t.Error("version not set")
	}
	if caps.MaxBatchSize < 1 {
		t.Errorf("max batch size %d, want at least 1", caps.MaxBatchSize)
	}

	t.Logf("Session %s capabilities:", ct.Session.ID())
	t.Logf("  Protocol: %s", caps.Protocol)
	t.Logf("  Version: %s", caps.Version)
	t.Logf("  MaxBatchSize: %d", caps.MaxBatchSize)
}

// ErrorContractTest validates that lookup failures follow the taxonomy
type ErrorContractTest struct {
	Name          string
	Session       ports.Session
	Identifiers   []string
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

// Run executes an error contract test
func (ect *ErrorContractTest) Run(t *testing.T) {
	page, err := ect.Session.Lookup(context.Background(), ect.Identifiers)
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if page != nil {
		t.Error("failed lookup must not return a page")
	}

	category := providers.GetCategory(err)
	if category != ect.ExpectedError {
		t.Errorf("expected error category %s, got %s", ect.ExpectedError, category)
	}

	isRetryable := providers.IsRetryable(err)
	if isRetryable != ect.ExpectedRetry {
		t.Errorf("expected retryable=%v, got %v", ect.ExpectedRetry, isRetryable)
	}
}
