// Package ports declares the narrow interfaces the verification pipeline
// depends on. Markup-specific and browser-specific code lives behind them.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Session,Extractor,ProgressReporter

import (
	"context"
	"time"

	"vatcheck/internal/verification/domain"
	"vatcheck/internal/verification/providers"
)

// Session is an exclusively owned connection to the registry form.
// Open acquires the underlying agent once per run; Close releases it and is
// safe to call more than once. Lookup is never called concurrently.
type Session interface {
	ID() string
	Capabilities() providers.Capabilities
	Open(ctx context.Context) error
	Lookup(ctx context.Context, identifiers []string) (*providers.Page, error)
	Close() error
}

// Extractor turns a registry page into a LookupResult. It never fails: an
// unusable page degrades to empty accounts and unknown compliance.
type Extractor interface {
	Extract(page *providers.Page, identifiers []string) domain.LookupResult
}

// ProgressEvent is pushed after each batch completes.
type ProgressEvent struct {
	RunID        string
	BatchIndex   int // 0-based
	TotalBatches int
	Identifiers  []string
	Remaining    time.Duration // Estimated time left for the remaining batches
	Failed       bool          // The session produced no results page for the batch
}

// Completed returns the number of batches finished so far.
func (e ProgressEvent) Completed() int {
	return e.BatchIndex + 1
}

// Fraction returns completion in [0, 1].
func (e ProgressEvent) Fraction() float64 {
	if e.TotalBatches <= 0 {
		return 1
	}
	return float64(e.Completed()) / float64(e.TotalBatches)
}

// ProgressReporter observes batch completion. It has no influence on the run.
type ProgressReporter interface {
	BatchCompleted(ctx context.Context, event ProgressEvent)
}
