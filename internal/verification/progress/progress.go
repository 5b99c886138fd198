// Package progress provides ProgressReporter implementations.
package progress

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vatcheck/internal/verification/ports"
)

// LogReporter writes one structured log line per completed batch.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a LogReporter. A nil logger uses slog.Default.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) BatchCompleted(ctx context.Context, e ports.ProgressEvent) {
	level := slog.LevelInfo
	if e.Failed {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "batch completed",
		"run_id", e.RunID,
		"batch", e.Completed(),
		"total", e.TotalBatches,
		"percent", int(e.Fraction()*100),
		"identifiers", strings.Join(e.Identifiers, ", "),
		"eta", e.Remaining.Round(10*time.Millisecond).String(),
		"failed", e.Failed,
	)
}

// Multi fans one event out to several reporters in order.
type Multi []ports.ProgressReporter

func (m Multi) BatchCompleted(ctx context.Context, e ports.ProgressEvent) {
	for _, r := range m {
		if r != nil {
			r.BatchCompleted(ctx, e)
		}
	}
}

// Func adapts a plain function to ports.ProgressReporter.
type Func func(ctx context.Context, e ports.ProgressEvent)

func (f Func) BatchCompleted(ctx context.Context, e ports.ProgressEvent) {
	f(ctx, e)
}
