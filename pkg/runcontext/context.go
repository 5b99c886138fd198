// Package runcontext carries run-scoped values (run ID, run clock) through
// context.Context so the pipeline, session and reporters agree on them
// without threading extra parameters.
//
// Usage in tests (inject values):
//
//	ctx = runcontext.WithTime(ctx, fixedTime)
//	ctx = runcontext.WithRunID(ctx, "run-1")
package runcontext

import (
	"context"
	"time"
)

type (
	runIDKey   struct{}
	runTimeKey struct{}
)

// RunID retrieves the run ID from the context, or "" if not set.
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRunID injects a run ID into the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// Now retrieves the run-scoped time from context.
// Falls back to time.Now() if not set.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(runTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the run clock. Output file names are derived from it, so
// two runs pinned to the same time produce the same file name.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, runTimeKey{}, t)
}
