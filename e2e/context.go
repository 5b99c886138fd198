package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"vatcheck/internal/sheet"
	"vatcheck/internal/verification/domain"
	"vatcheck/internal/verification/extract"
	"vatcheck/internal/verification/service"
	"vatcheck/pkg/runcontext"
)

// TestContext holds the state of one scenario: the fake registry, the input
// workbook and the outcome of the last run.
type TestContext struct {
	dir       string
	registry  *FakeRegistry
	inputPath string
	batchSize int
	runAt     time.Time

	runs       []*service.Report
	outputPath string
	lastErr    error
}

// NewTestContext creates a scenario context writing files under dir.
func NewTestContext(dir string) *TestContext {
	return &TestContext{
		dir:       dir,
		registry:  NewFakeRegistry(),
		batchSize: service.DefaultBatchSize,
		runAt:     time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local),
	}
}

func (tc *TestContext) Disclose(identifier string, accounts []string, compliance string) {
	tc.registry.Disclose(identifier, accounts, compliance)
}

func (tc *TestContext) TimeOutOn(identifier string) {
	tc.registry.TimeOutOn(identifier)
}

func (tc *TestContext) SetBatchSize(n int) {
	tc.batchSize = n
}

// SetInput writes rows (header first) to an input workbook.
func (tc *TestContext) SetInput(rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()
	name := f.GetSheetName(0)
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, ref, &row); err != nil {
			return err
		}
	}
	tc.inputPath = filepath.Join(tc.dir, "platby.xlsx")
	return f.SaveAs(tc.inputPath)
}

// Run reads the input workbook, verifies it and writes the result workbook.
func (tc *TestContext) Run(ctx context.Context) error {
	tc.lastErr = nil
	rows, err := sheet.ReadFile(tc.inputPath)
	if err != nil {
		tc.lastErr = err
		return nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := service.New(tc.registry.NewSession, extract.New(extract.WithLogger(logger)),
		service.WithBatchSize(tc.batchSize),
		service.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx = runcontext.WithTime(ctx, tc.runAt)
	report, err := p.Run(ctx, rows)
	if err != nil {
		tc.lastErr = err
		return nil
	}
	tc.runs = append(tc.runs, report)

	tc.outputPath, err = sheet.NewWriter(filepath.Join(tc.dir, "out")).Write(ctx, report.Rows)
	return err
}

func (tc *TestContext) LastError() error {
	return tc.lastErr
}

// Rows returns the rows of the latest successful run.
func (tc *TestContext) Rows() []domain.ResultRow {
	if len(tc.runs) == 0 {
		return nil
	}
	return tc.runs[len(tc.runs)-1].Rows
}

// AllRuns returns the rows of every successful run in order.
func (tc *TestContext) AllRuns() [][]domain.ResultRow {
	out := make([][]domain.ResultRow, len(tc.runs))
	for i, r := range tc.runs {
		out[i] = r.Rows
	}
	return out
}

// OutputRows reads back the written result workbook.
func (tc *TestContext) OutputRows() ([][]string, error) {
	if tc.outputPath == "" {
		return nil, fmt.Errorf("no output written")
	}
	if _, err := os.Stat(tc.outputPath); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(tc.outputPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}

func (tc *TestContext) OutputName() string {
	return filepath.Base(tc.outputPath)
}

func (tc *TestContext) Sessions() (opened, closed int) {
	return tc.registry.Sessions()
}
