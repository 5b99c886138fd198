// Package service runs verification: normalize the uploaded rows, split
// them into batches, look each batch up in the registry through one
// exclusively owned session, and reconcile the results.
//
// Batches are processed strictly in order with one lookup in flight. A
// failed batch degrades its own rows to NOT_FOUND with unknown compliance;
// only failing to acquire the session aborts the run.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"vatcheck/internal/verification/batcher"
	"vatcheck/internal/verification/domain"
	"vatcheck/internal/verification/metrics"
	"vatcheck/internal/verification/normalizer"
	"vatcheck/internal/verification/ports"
	"vatcheck/internal/verification/providers"
	"vatcheck/internal/verification/reconcile"
	dErrors "vatcheck/pkg/domain-errors"
	"vatcheck/pkg/runcontext"
)

const (
	DefaultBatchSize = 2
	tracerName       = "vatcheck/verification"
)

// SessionFactory creates a fresh, unopened session for one run.
type SessionFactory func() (ports.Session, error)

// Report summarizes one run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	// Rows in batch processing order, one per admitted record
	Rows []domain.ResultRow

	// Account verdict counts over Rows
	Counts map[domain.Verdict]int
	// Rows whose compliance flag could not be read
	UnknownCompliance int

	Excluded   int
	Duplicates int
	Malformed  int

	Batches       int
	FailedBatches int
}

// Pipeline orchestrates a verification run. It is safe to call Run again
// after a previous run finished; each run gets its own session.
type Pipeline struct {
	newSession SessionFactory
	extractor  ports.Extractor
	reporter   ports.ProgressReporter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	policy     normalizer.Policy
	batchSize  int
	interval   time.Duration
	clock      func() time.Time
}

type Option func(*Pipeline)

func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		p.batchSize = n
	}
}

func WithPolicy(policy normalizer.Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

func WithReporter(r ports.ProgressReporter) Option {
	return func(p *Pipeline) {
		p.reporter = r
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithBatchInterval sets the minimum spacing between consecutive lookups.
// Zero disables pacing.
func WithBatchInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		p.interval = d
	}
}

// WithClock overrides the clock used for run timing and ETA.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

func New(newSession SessionFactory, extractor ports.Extractor, opts ...Option) (*Pipeline, error) {
	if newSession == nil {
		return nil, errors.New("session factory is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}

	p := &Pipeline{
		newSession: newSession,
		extractor:  extractor,
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		policy:     normalizer.DefaultPolicy(),
		batchSize:  DefaultBatchSize,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.batchSize < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("batch size must be at least 1, got %d", p.batchSize))
	}
	if p.interval < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "batch interval must not be negative")
	}
	return p, nil
}

// Run verifies rows and returns the report. The only errors are invalid
// configuration, failure to acquire the session, and cancellation of ctx
// between batches.
func (p *Pipeline) Run(ctx context.Context, rows []domain.RawRow) (report *Report, err error) {
	start := p.clock()
	runID := runcontext.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = runcontext.WithRunID(ctx, runID)
	}
	logger := p.logger.With("run_id", runID)

	ctx, span := p.tracer.Start(ctx, "verification.Run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("rows", len(rows)),
	))
	defer func() {
		result := "completed"
		if err != nil {
			result = "failed"
			if dErrors.HasCode(err, dErrors.CodeCanceled) {
				result = "canceled"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		p.metrics.ObserveRun(result, p.clock().Sub(start))
		span.End()
	}()

	outcome := normalizer.New(p.policy).Normalize(rows)
	p.metrics.AddSkipped("excluded", outcome.Excluded)
	p.metrics.AddSkipped("duplicate", outcome.Duplicates)

	batches, err := batcher.Split(outcome.Records, p.batchSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid batch size")
	}

	report = &Report{
		RunID:      runID,
		StartedAt:  start,
		Rows:       make([]domain.ResultRow, 0, len(outcome.Records)),
		Counts:     make(map[domain.Verdict]int, len(domain.Verdicts)),
		Excluded:   outcome.Excluded,
		Duplicates: outcome.Duplicates,
		Malformed:  outcome.Malformed,
		Batches:    len(batches),
	}
	logger.InfoContext(ctx, "verification started",
		"rows", len(rows),
		"records", len(outcome.Records),
		"excluded", outcome.Excluded,
		"duplicates", outcome.Duplicates,
		"batches", len(batches),
	)

	if len(batches) == 0 {
		report.Duration = p.clock().Sub(start)
		logger.InfoContext(ctx, "no eligible records, registry not contacted")
		return report, nil
	}

	session, err := p.newSession()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create registry session")
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.WarnContext(ctx, "failed to close registry session", "error", cerr)
		}
	}()

	if caps := session.Capabilities(); caps.MaxBatchSize > 0 && p.batchSize > caps.MaxBatchSize {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("batch size %d exceeds the %d identifier slots of %s", p.batchSize, caps.MaxBatchSize, session.ID()))
	}

	if err := session.Open(ctx); err != nil {
		logger.ErrorContext(ctx, "failed to open registry session", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to open registry session")
	}

	var limiter *rate.Limiter
	if p.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.interval), 1)
	}

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeCanceled,
				fmt.Sprintf("run canceled after %d of %d batches", i, len(batches)))
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeCanceled,
					fmt.Sprintf("run canceled after %d of %d batches", i, len(batches)))
			}
		}

		rows, failed := p.lookupBatch(ctx, logger, session, batch)
		report.Rows = append(report.Rows, rows...)
		if failed {
			report.FailedBatches++
		}

		if p.reporter != nil {
			p.reporter.BatchCompleted(ctx, ports.ProgressEvent{
				RunID:        runID,
				BatchIndex:   i,
				TotalBatches: len(batches),
				Identifiers:  batch.Identifiers(),
				Remaining:    EstimateRemaining(p.clock().Sub(start), i, len(batches)),
				Failed:       failed,
			})
		}
	}

	for _, row := range report.Rows {
		report.Counts[row.Verdict]++
		if row.ComplianceVerdict() == domain.VerdictUnknownCompliance {
			report.UnknownCompliance++
		}
	}
	report.Duration = p.clock().Sub(start)

	logger.InfoContext(ctx, "verification finished",
		"rows", len(report.Rows),
		"match", report.Counts[domain.VerdictMatch],
		"mismatch", report.Counts[domain.VerdictMismatch],
		"not_found", report.Counts[domain.VerdictNotFound],
		"malformed", report.Counts[domain.VerdictMalformed],
		"unknown_compliance", report.UnknownCompliance,
		"failed_batches", report.FailedBatches,
		"duration", report.Duration.String(),
	)
	return report, nil
}

// lookupBatch never fails the run. A lookup error or an unusable results
// page degrades the batch and reports it as failed.
func (p *Pipeline) lookupBatch(ctx context.Context, logger *slog.Logger, session ports.Session, batch domain.Batch) ([]domain.ResultRow, bool) {
	ids := batch.Identifiers()
	ctx, span := p.tracer.Start(ctx, "verification.Batch", trace.WithAttributes(
		attribute.Int("batch.index", batch.Index),
		attribute.Int("batch.size", batch.Size()),
	))
	defer span.End()

	started := p.clock()
	var result domain.LookupResult
	outcome := "ok"

	page, err := session.Lookup(ctx, ids)
	if err != nil {
		outcome = string(providers.GetCategory(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger.WarnContext(ctx, "batch lookup failed",
			"batch", batch.Index+1,
			"identifiers", strings.Join(ids, ", "),
			"category", outcome,
			"retryable", providers.IsRetryable(err),
			"error", err,
		)
		result = domain.FailedLookup(ids)
	} else {
		result = p.extractor.Extract(page, ids)
		if result.Failed {
			outcome = string(providers.ErrorBadData)
			span.SetStatus(codes.Error, outcome)
			logger.WarnContext(ctx, "batch results page unusable",
				"batch", batch.Index+1,
				"identifiers", strings.Join(ids, ", "),
				"category", outcome,
			)
		}
	}
	p.metrics.ObserveBatch(outcome, p.clock().Sub(started))

	rows := reconcile.Reconcile(batch, result)
	for _, row := range rows {
		p.metrics.IncrementVerdict(row.Verdict.String())
	}
	return rows, err != nil || result.Failed
}

// EstimateRemaining projects the time left after batch index i (0-based)
// of total finished, elapsed after the run started. The first batch has no
// estimate.
func EstimateRemaining(elapsed time.Duration, i, total int) time.Duration {
	if i <= 0 || total <= 0 {
		return 0
	}
	done := i + 1
	remaining := total - done
	if remaining <= 0 {
		return 0
	}
	return elapsed / time.Duration(done) * time.Duration(remaining)
}
