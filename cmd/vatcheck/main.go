package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"vatcheck/internal/platform/config"
	"vatcheck/internal/platform/httpserver"
	"vatcheck/internal/platform/logger"
	platformmetrics "vatcheck/internal/platform/metrics"
	"vatcheck/internal/sheet"
	httptransport "vatcheck/internal/transport/http"
	"vatcheck/internal/verification/extract"
	"vatcheck/internal/verification/metrics"
	"vatcheck/internal/verification/normalizer"
	"vatcheck/internal/verification/ports"
	"vatcheck/internal/verification/progress"
	"vatcheck/internal/verification/providers/adisspr"
	"vatcheck/internal/verification/service"
	dErrors "vatcheck/pkg/domain-errors"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitUnavailable = 3
	exitCanceled    = 130
)

// main wires configuration, the registry session and the pipeline, runs one
// verification and writes the result workbook. Business logic lives in
// internal/verification.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, input, err := parse(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	log := logger.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)

	rows, err := sheet.ReadFile(input)
	if err != nil {
		log.Error("cannot read input", "path", input, "error", err)
		return exitCode(err)
	}

	reg := platformmetrics.NewRegistry()
	tracker := progress.NewTracker()

	pipeline, err := service.New(
		func() (ports.Session, error) {
			return adisspr.New(adisspr.Config{
				URL:           cfg.RegistryURL,
				CountryPrefix: cfg.CountryPrefix,
				WaitTimeout:   cfg.WaitTimeout,
				Headless:      cfg.Headless,
				BrowserPath:   cfg.BrowserPath,
				Logger:        log,
			}), nil
		},
		extract.New(extract.WithLogger(log)),
		service.WithBatchSize(cfg.BatchSize),
		service.WithBatchInterval(cfg.BatchInterval),
		service.WithPolicy(normalizer.Policy{
			TransferMethod:   cfg.TransferMethod,
			CountryPrefix:    cfg.CountryPrefix,
			RequireUnsettled: cfg.StrictSettlement,
			Dedup:            cfg.Dedup,
		}),
		service.WithReporter(progress.Multi{progress.NewLogReporter(log), tracker}),
		service.WithMetrics(metrics.New(reg)),
		service.WithLogger(log),
	)
	if err != nil {
		log.Error("cannot build pipeline", "error", err)
		return exitCode(err)
	}

	serveCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()
	g, gctx := errgroup.WithContext(serveCtx)
	if cfg.MetricsAddr != "" {
		srv := httpserver.New(cfg.MetricsAddr, httptransport.NewRouter(httptransport.NewHandler(reg, tracker)))
		ln, err := httpserver.Listen(srv)
		if err != nil {
			log.Error("cannot bind metrics address", "addr", cfg.MetricsAddr, "error", err)
			return exitUsage
		}
		log.Info("serving metrics", "addr", ln.Addr().String())
		g.Go(func() error {
			// Failures here never fail the run.
			if err := httpserver.ServeListener(gctx, srv, ln); err != nil {
				log.Warn("metrics server stopped", "error", err)
			}
			return nil
		})
	}

	var (
		output string
		report *service.Report
	)
	g.Go(func() error {
		defer stopServing()
		var err error
		report, err = pipeline.Run(ctx, rows)
		if err != nil {
			return err
		}
		output, err = sheet.NewWriter(cfg.OutputDir).Write(ctx, report.Rows)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("verification failed", "error", err)
		return exitCode(err)
	}

	log.Info("verification finished",
		"run_id", report.RunID,
		"output", output,
		"rows", len(report.Rows),
		"failed_batches", report.FailedBatches,
		"unknown_compliance", report.UnknownCompliance,
	)
	return exitOK
}

// parse reads the environment, then lets flags override it.
func parse(args []string, stderr io.Writer) (config.Config, string, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, "", err
	}

	fs := flag.NewFlagSet("vatcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: vatcheck [flags] <payments.xlsx|payments.csv>")
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.RegistryURL, "registry-url", cfg.RegistryURL, "registry form URL")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "identifiers per registry lookup")
	fs.DurationVar(&cfg.WaitTimeout, "wait-timeout", cfg.WaitTimeout, "bound on every page wait")
	fs.DurationVar(&cfg.BatchInterval, "batch-interval", cfg.BatchInterval, "minimum pause between lookups")
	fs.StringVar(&cfg.CountryPrefix, "country", cfg.CountryPrefix, "admitted identifier prefix")
	fs.StringVar(&cfg.TransferMethod, "method", cfg.TransferMethod, "admitted payment method")
	fs.BoolVar(&cfg.StrictSettlement, "strict", cfg.StrictSettlement, "skip rows with a settlement status")
	fs.BoolVar(&cfg.Dedup, "dedup", cfg.Dedup, "collapse repeated identifier/account pairs")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run the browser headless")
	fs.StringVar(&cfg.BrowserPath, "browser", cfg.BrowserPath, "Chrome executable")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "directory for the result workbook")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics and /status on this address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return cfg, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return cfg, "", dErrors.New(dErrors.CodeValidation, "exactly one input file is required")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, fs.Arg(0), nil
}

func exitCode(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return exitUsage
	case dErrors.CodeUnavailable:
		return exitUnavailable
	case dErrors.CodeCanceled:
		return exitCanceled
	default:
		if errors.Is(err, context.Canceled) {
			return exitCanceled
		}
		return exitFailure
	}
}
