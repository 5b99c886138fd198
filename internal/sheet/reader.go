// Package sheet reads the uploaded payment table and writes the styled
// result workbook.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"vatcheck/internal/verification/domain"
	dErrors "vatcheck/pkg/domain-errors"
)

// Input column names.
const (
	ColumnPaymentMethod = "Forma úhrady"
	ColumnIdentifier    = "DIČ"
	ColumnAccount       = "Číslo bank. účtu"
	ColumnBankCode      = "Směr.kód"
	ColumnPayeeName     = "Název firmy nebo jméno osoby"
	ColumnSettlement    = "Stav úhrady" // optional
)

var requiredColumns = []string{
	ColumnPaymentMethod,
	ColumnIdentifier,
	ColumnAccount,
	ColumnBankCode,
	ColumnPayeeName,
}

var knownColumns = []string{
	ColumnPaymentMethod,
	ColumnIdentifier,
	ColumnAccount,
	ColumnBankCode,
	ColumnPayeeName,
	ColumnSettlement,
}

const utf8BOM = "\ufeff"

// ReadFile reads an .xlsx/.xlsm workbook or a .csv file.
func ReadFile(path string) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "cannot open input file")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported input format %q", filepath.Ext(path)))
	}
}

// ReadXLSX reads the first worksheet of a workbook. Cells are read raw so
// numeric account numbers keep all their digits.
func ReadXLSX(r io.Reader) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "input is not a readable workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "reading worksheet")
	}
	return fromRows(rows)
}

// ReadCSV reads a comma- or semicolon-separated table with a header row.
func ReadCSV(r io.Reader) ([]domain.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "reading csv")
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter(data)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "parsing csv")
	}
	return fromRows(rows)
}

// delimiter picks ';' when the header line has more semicolons than commas.
func delimiter(data []byte) rune {
	header, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func fromRows(rows [][]string) ([]domain.RawRow, error) {
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "input table is empty")
	}
	columns, err := headerMap(rows[0])
	if err != nil {
		return nil, err
	}

	cell := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]domain.RawRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, domain.RawRow{
			Line:             i + 2,
			PaymentMethod:    cell(row, ColumnPaymentMethod),
			Identifier:       cell(row, ColumnIdentifier),
			AccountNumber:    cell(row, ColumnAccount),
			BankCode:         cell(row, ColumnBankCode),
			PayeeName:        cell(row, ColumnPayeeName),
			SettlementStatus: cell(row, ColumnSettlement),
		})
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "input table has no data rows")
	}
	return out, nil
}

// headerMap maps column names to their indices. Matching ignores case and
// surrounding whitespace.
func headerMap(header []string) (map[string]int, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	columns := make(map[string]int, len(requiredColumns)+1)
	for _, column := range knownColumns {
		for i, field := range header {
			if strings.EqualFold(column, strings.TrimSpace(field)) {
				columns[column] = i
				break
			}
		}
	}

	var missing []string
	for _, column := range requiredColumns {
		if _, ok := columns[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("required column(s) not found in header: %s", strings.Join(missing, ", ")))
	}
	return columns, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
