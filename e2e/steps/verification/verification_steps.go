package verification

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"vatcheck/internal/verification/domain"
	dErrors "vatcheck/pkg/domain-errors"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Disclose(identifier string, accounts []string, compliance string)
	TimeOutOn(identifier string)
	SetBatchSize(n int)
	SetInput(rows [][]string) error
	Run(ctx context.Context) error
	LastError() error
	Rows() []domain.ResultRow
	AllRuns() [][]domain.ResultRow
	OutputRows() ([][]string, error)
	OutputName() string
	Sessions() (opened, closed int)
}

// RegisterSteps registers verification step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &verificationSteps{tc: tc}

	// Arrange
	ctx.Step(`^the registry discloses:$`, steps.registryDiscloses)
	ctx.Step(`^the registry times out for "([^"]*)"$`, steps.registryTimesOut)
	ctx.Step(`^the payment table:$`, steps.paymentTable)
	ctx.Step(`^a batch size of (\d+)$`, steps.batchSize)

	// Act
	ctx.Step(`^I run the verification$`, steps.run)
	ctx.Step(`^I run the verification again$`, steps.run)

	// Assert
	ctx.Step(`^the result has (\d+) rows?$`, steps.resultHasRows)
	ctx.Step(`^row (\d+) is "([^"]*)" with verdict "([^"]*)"$`, steps.rowVerdict)
	ctx.Step(`^row (\d+) has compliance "([^"]*)"$`, steps.rowCompliance)
	ctx.Step(`^the output workbook "([^"]*)" lists:$`, steps.outputLists)
	ctx.Step(`^both runs produced identical rows$`, steps.identicalRuns)
	ctx.Step(`^the run fails with an input error$`, steps.inputError)
	ctx.Step(`^the registry session was opened (\d+) times? and closed (\d+) times?$`, steps.sessions)
}

type verificationSteps struct {
	tc TestContext
}

func (s *verificationSteps) registryDiscloses(ctx context.Context, table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 3 {
			return fmt.Errorf("expected 3 columns (DIČ, accounts, unreliable), got %d", len(row.Cells))
		}
		var accounts []string
		for _, a := range strings.Split(row.Cells[1].Value, ",") {
			if a = strings.TrimSpace(a); a != "" {
				accounts = append(accounts, a)
			}
		}
		s.tc.Disclose(row.Cells[0].Value, accounts, row.Cells[2].Value)
	}
	return nil
}

func (s *verificationSteps) registryTimesOut(ctx context.Context, identifier string) error {
	s.tc.TimeOutOn(identifier)
	return nil
}

func (s *verificationSteps) paymentTable(ctx context.Context, table *godog.Table) error {
	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		for _, cell := range row.Cells {
			rows[i] = append(rows[i], cell.Value)
		}
	}
	return s.tc.SetInput(rows)
}

func (s *verificationSteps) batchSize(ctx context.Context, n int) error {
	s.tc.SetBatchSize(n)
	return nil
}

func (s *verificationSteps) run(ctx context.Context) error {
	return s.tc.Run(ctx)
}

func (s *verificationSteps) resultHasRows(ctx context.Context, n int) error {
	if err := s.tc.LastError(); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	if got := len(s.tc.Rows()); got != n {
		return fmt.Errorf("expected %d rows, got %d: %+v", n, got, s.tc.Rows())
	}
	return nil
}

func (s *verificationSteps) row(n int) (domain.ResultRow, error) {
	rows := s.tc.Rows()
	if n < 1 || n > len(rows) {
		return domain.ResultRow{}, fmt.Errorf("row %d out of range (%d rows)", n, len(rows))
	}
	return rows[n-1], nil
}

func (s *verificationSteps) rowVerdict(ctx context.Context, n int, identifier, verdict string) error {
	row, err := s.row(n)
	if err != nil {
		return err
	}
	if row.Identifier != identifier {
		return fmt.Errorf("row %d: expected identifier %s, got %s", n, identifier, row.Identifier)
	}
	if string(row.Verdict) != verdict {
		return fmt.Errorf("row %d (%s): expected verdict %s, got %s", n, identifier, verdict, row.Verdict)
	}
	return nil
}

func (s *verificationSteps) rowCompliance(ctx context.Context, n int, compliance string) error {
	row, err := s.row(n)
	if err != nil {
		return err
	}
	if got := row.Cells()[4]; got != compliance {
		return fmt.Errorf("row %d: expected compliance %q, got %q", n, compliance, got)
	}
	return nil
}

func (s *verificationSteps) outputLists(ctx context.Context, name string, table *godog.Table) error {
	if got := s.tc.OutputName(); got != name {
		return fmt.Errorf("expected output file %s, got %s", name, got)
	}
	got, err := s.tc.OutputRows()
	if err != nil {
		return err
	}
	if len(got) != len(table.Rows) {
		return fmt.Errorf("expected %d workbook rows including header, got %d", len(table.Rows), len(got))
	}
	for i, row := range table.Rows {
		for j, cell := range row.Cells {
			if j >= len(got[i]) || got[i][j] != cell.Value {
				return fmt.Errorf("workbook row %d: expected %v, got %v", i+1, cellValues(table, i), got[i])
			}
		}
	}
	return nil
}

func (s *verificationSteps) identicalRuns(ctx context.Context) error {
	runs := s.tc.AllRuns()
	if len(runs) != 2 {
		return fmt.Errorf("expected 2 runs, got %d", len(runs))
	}
	if len(runs[0]) != len(runs[1]) {
		return fmt.Errorf("row counts differ: %d vs %d", len(runs[0]), len(runs[1]))
	}
	for i := range runs[0] {
		if runs[0][i] != runs[1][i] {
			return fmt.Errorf("row %d differs: %+v vs %+v", i+1, runs[0][i], runs[1][i])
		}
	}
	return nil
}

func (s *verificationSteps) inputError(ctx context.Context) error {
	err := s.tc.LastError()
	if err == nil {
		return fmt.Errorf("expected the run to fail")
	}
	if !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		return fmt.Errorf("expected an input error, got %v", err)
	}
	return nil
}

func (s *verificationSteps) sessions(ctx context.Context, wantOpened, wantClosed int) error {
	gotOpened, gotClosed := s.tc.Sessions()
	if gotOpened != wantOpened || gotClosed != wantClosed {
		return fmt.Errorf("expected %d opened / %d closed sessions, got %d / %d", wantOpened, wantClosed, gotOpened, gotClosed)
	}
	return nil
}

func cellValues(table *godog.Table, i int) []string {
	cells := table.Rows[i].Cells
	out := make([]string, len(cells))
	for j, c := range cells {
		out[j] = c.Value
	}
	return out
}
