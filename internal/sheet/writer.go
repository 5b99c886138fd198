package sheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"vatcheck/internal/verification/domain"
	"vatcheck/pkg/runcontext"
)

const (
	TableName   = "ResultsTable"
	TableStyle  = "TableStyleMedium9"
	FilePrefix  = "Kontrola_ucty_DPH_"
	fileLayout  = "02-01-2006_1504"
	columnSlack = 2
)

// Header is the output table header, in ResultRow.Cells order.
var Header = []string{
	"DIČ",
	"Bankovní účet",
	"Název firmy nebo jméno osoby",
	"Match",
	"Nespolehlivý plátce",
}

// FileName returns the output file name for a run started at t.
func FileName(t time.Time) string {
	return FilePrefix + t.Format(fileLayout) + ".xlsx"
}

// Render builds the result workbook: a header row, one row per result, a
// striped table over the data and columns sized to their longest text.
// The caller must Close the returned file.
func Render(rows []domain.ResultRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	widths := make([]int, len(Header))
	track := func(cells []string) {
		for i, c := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}

	header := append([]string(nil), Header...)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	track(header)

	for i, row := range rows {
		cells := row.Cells()
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
		track(cells)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, float64(w+columnSlack)); err != nil {
			f.Close()
			return nil, fmt.Errorf("sizing column %s: %w", col, err)
		}
	}

	// A table needs at least one data row.
	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(Header), len(rows)+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		stripes := true
		if err := f.AddTable(sheet, &excelize.Table{
			Range:          "A1:" + last,
			Name:           TableName,
			StyleName:      TableStyle,
			ShowRowStripes: &stripes,
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("adding results table: %w", err)
		}
	}
	return f, nil
}

// Writer saves result workbooks into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer for dir. An empty dir means the working directory.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Write saves rows and returns the path written. The file name is derived
// from the run clock in ctx.
func (w *Writer) Write(ctx context.Context, rows []domain.ResultRow) (string, error) {
	f, err := Render(rows)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(runcontext.Now(ctx)))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}
