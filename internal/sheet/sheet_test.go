package sheet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vatcheck/internal/verification/domain"
	dErrors "vatcheck/pkg/domain-errors"
	"vatcheck/pkg/runcontext"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, ref, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadXLSX(t *testing.T) {
	t.Run("maps columns by name and keeps numeric accounts intact", func(t *testing.T) {
		buf := workbook(t, [][]any{
			{"Název firmy nebo jméno osoby", "DIČ", "Forma úhrady", "Číslo bank. účtu", "Směr.kód", "Částka"},
			{"Alfa s.r.o.", "CZ12345678", "PREVOD", 1234567890, 100, 1500.5},
			{},
			{"Beta a.s.", "CZ87654321", "HOTOVOST", "19-2000145399", "0800"},
		})

		rows, err := ReadXLSX(buf)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, domain.RawRow{
			Line:          2,
			PaymentMethod: "PREVOD",
			Identifier:    "CZ12345678",
			AccountNumber: "1234567890",
			BankCode:      "100",
			PayeeName:     "Alfa s.r.o.",
		}, rows[0])
		assert.Equal(t, 4, rows[1].Line)
		assert.Equal(t, "19-2000145399", rows[1].AccountNumber)
		assert.Equal(t, "", rows[1].SettlementStatus)
	})

	t.Run("missing required column", func(t *testing.T) {
		buf := workbook(t, [][]any{
			{"DIČ", "Forma úhrady", "Číslo bank. účtu"},
			{"CZ1", "PREVOD", "1"},
		})

		_, err := ReadXLSX(buf)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.Contains(t, err.Error(), "Směr.kód")
		assert.Contains(t, err.Error(), "Název firmy nebo jméno osoby")
	})

	t.Run("header only", func(t *testing.T) {
		buf := workbook(t, [][]any{
			{"Forma úhrady", "DIČ", "Číslo bank. účtu", "Směr.kód", "Název firmy nebo jméno osoby"},
		})

		_, err := ReadXLSX(buf)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := ReadXLSX(strings.NewReader("definitely not zip"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestReadCSV(t *testing.T) {
	t.Run("semicolon separated with BOM and settlement column", func(t *testing.T) {
		input := "\ufeffForma úhrady;DIČ;Číslo bank. účtu;Směr.kód;Název firmy nebo jméno osoby;Stav úhrady\n" +
			"PREVOD;CZ12345678;123456789.0;0100;Alfa s.r.o.;\n" +
			"PREVOD;CZ87654321;555;0300;Beta a.s.;uhrazeno\n"

		rows, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "PREVOD", rows[0].PaymentMethod)
		assert.Equal(t, "123456789.0", rows[0].AccountNumber)
		assert.Equal(t, "uhrazeno", rows[1].SettlementStatus)
	})

	t.Run("comma separated, case-insensitive header", func(t *testing.T) {
		input := "forma úhrady, dič ,Číslo bank. účtu,SMĚR.KÓD,Název firmy nebo jméno osoby\n" +
			"PREVOD,CZ1,1,2,\"Gama, v.o.s.\"\n"

		rows, err := ReadCSV(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "CZ1", rows[0].Identifier)
		assert.Equal(t, "Gama, v.o.s.", rows[0].PayeeName)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "platby.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Forma úhrady,DIČ,Číslo bank. účtu,Směr.kód,Název firmy nebo jméno osoby\nPREVOD,CZ1,1,0100,A\n"), 0o600))
	rows, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadFile(filepath.Join(dir, "platby.ods"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	odsPath := filepath.Join(dir, "exists.ods")
	require.NoError(t, os.WriteFile(odsPath, []byte("x"), 0o600))
	_, err = ReadFile(odsPath)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestFileName(t *testing.T) {
	at := time.Date(2025, 3, 4, 9, 7, 0, 0, time.UTC)
	assert.Equal(t, "Kontrola_ucty_DPH_04-03-2025_0907.xlsx", FileName(at))
}

func TestRender(t *testing.T) {
	rows := []domain.ResultRow{
		{Identifier: "CZ12345678", NormalizedAccount: "19-2000145399/0800", PayeeName: "Alfa s.r.o.", Verdict: domain.VerdictMatch, Compliance: "NE"},
		{Identifier: "CZ87654321", NormalizedAccount: "abc/0100", PayeeName: "Beta", Verdict: domain.VerdictNotFound},
	}

	f, err := Render(rows)
	require.NoError(t, err)
	defer f.Close()
	sheet := f.GetSheetName(0)

	got, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Header, got[0])
	assert.Equal(t, []string{"CZ12345678", "19-2000145399/0800", "Alfa s.r.o.", "✔", "NE"}, got[1])
	assert.Equal(t, []string{"CZ87654321", "abc/0100", "Beta", "Nenalezen účet", "NEZNÁMÝ"}, got[2])

	tables, err := f.GetTables(sheet)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, TableName, tables[0].Name)
	assert.Equal(t, "A1:E3", tables[0].Range)
	assert.Equal(t, TableStyle, tables[0].StyleName)

	width, err := f.GetColWidth(sheet, "B")
	require.NoError(t, err)
	assert.Equal(t, float64(len("19-2000145399/0800")+2), width)

	width, err = f.GetColWidth(sheet, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(28+2), width, "width counts characters, not bytes")
}

func TestRenderWithoutRows(t *testing.T) {
	f, err := Render(nil)
	require.NoError(t, err)
	defer f.Close()

	tables, err := f.GetTables(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	at := time.Date(2025, 3, 4, 9, 7, 0, 0, time.Local)
	ctx := runcontext.WithTime(context.Background(), at)

	rows := []domain.ResultRow{{Identifier: "CZ1", NormalizedAccount: "1/0100", PayeeName: "A", Verdict: domain.VerdictMismatch, Compliance: "ANO"}}
	path, err := NewWriter(dir).Write(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Kontrola_ucty_DPH_04-03-2025_0907.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"CZ1", "1/0100", "A", "Neshoda účtu", "ANO"}, got[1])
}
