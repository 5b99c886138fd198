package extract

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatcheck/internal/verification/domain"
	"vatcheck/internal/verification/providers"
)

func loadPage(t *testing.T, name string, identifiers ...string) *providers.Page {
	t.Helper()
	html, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return &providers.Page{
		ProviderID:  "adisspr",
		Identifiers: identifiers,
		HTML:        string(html),
		CapturedAt:  time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestExtract(t *testing.T) {
	ids := []string{"CZ12345678", "CZ87654321"}

	t.Run("reads pooled accounts and positional compliance", func(t *testing.T) {
		res := New().Extract(loadPage(t, "results_two_payers.html", ids...), ids)

		assert.False(t, res.Failed)
		assert.Equal(t, ids, res.Identifiers)
		assert.Equal(t, []string{"19-2000145399/0800", "123456789/0100", "2400012345/2010"}, res.Accounts)
		assert.Equal(t, []string{"NE", "ANO"}, res.Compliance)
		assert.True(t, res.Discloses("2400012345/2010"))
	})

	t.Run("falls back to marker rows when layout moved", func(t *testing.T) {
		res := New().Extract(loadPage(t, "results_relaid.html", ids...), ids)

		assert.Equal(t, []string{"123456789/0100"}, res.Accounts)
		assert.Equal(t, []string{"NE", "ANO"}, res.Compliance)
	})

	t.Run("page without payers has no accounts and unknown compliance", func(t *testing.T) {
		res := New().Extract(loadPage(t, "results_not_found.html", ids...), ids)

		assert.False(t, res.Failed)
		assert.Empty(t, res.Accounts)
		assert.False(t, res.HasAccounts())
		assert.Equal(t, []string{domain.ComplianceUnknown, domain.ComplianceUnknown}, res.Compliance)
	})

	t.Run("more identifiers than payers on page", func(t *testing.T) {
		three := append(append([]string(nil), ids...), "CZ99999999")
		res := New().Extract(loadPage(t, "results_two_payers.html", three...), three)

		require.Len(t, res.Compliance, 3)
		assert.Equal(t, domain.ComplianceUnknown, res.ComplianceAt(2))
	})

	t.Run("custom marker", func(t *testing.T) {
		page := &providers.Page{HTML: `<html><body><table><tr><td>Unreliable payer: YES</td></tr></table></body></html>`}
		res := New(WithMarker("Unreliable payer")).Extract(page, []string{"CZ1"})

		assert.Equal(t, []string{"YES"}, res.Compliance)
	})
}

func TestExtractDegradedPages(t *testing.T) {
	ids := []string{"CZ12345678"}

	t.Run("nil page", func(t *testing.T) {
		res := New().Extract(nil, ids)
		assert.Equal(t, domain.FailedLookup(ids), res)
	})

	t.Run("blank page", func(t *testing.T) {
		var buf bytes.Buffer
		e := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		res := e.Extract(&providers.Page{HTML: "  \n "}, ids)
		assert.True(t, res.Failed)
		assert.Equal(t, []string{domain.ComplianceUnknown}, res.Compliance)
	})

	t.Run("truncated markup still parses", func(t *testing.T) {
		page := &providers.Page{HTML: `<html><body><table id="tableUcty0"><tbody><tr><td>123/0100 x`}
		res := New().Extract(page, ids)

		assert.False(t, res.Failed)
		assert.Equal(t, []string{"123/0100"}, res.Accounts)
	})
}
