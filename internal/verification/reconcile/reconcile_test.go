package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatcheck/internal/verification/domain"
)

func record(id, account string) domain.Record {
	return domain.Record{Identifier: id, NormalizedAccount: account, PayeeName: "Payee " + id}
}

func TestVerdict(t *testing.T) {
	disclosed := domain.LookupResult{
		Identifiers: []string{"CZ1", "CZ2"},
		Accounts:    []string{"123456789/0100", "19-2000145399/0800"},
		Compliance:  []string{"NE", "NE"},
	}

	tests := []struct {
		name     string
		rec      domain.Record
		res      domain.LookupResult
		expected domain.Verdict
	}{
		{
			name:     "account disclosed",
			rec:      record("CZ1", "123456789/0100"),
			res:      disclosed,
			expected: domain.VerdictMatch,
		},
		{
			name:     "account disclosed for the other identifier still matches",
			rec:      record("CZ2", "123456789/0100"),
			res:      disclosed,
			expected: domain.VerdictMatch,
		},
		{
			name:     "leading zero matters",
			rec:      record("CZ1", "0123456789/0100"),
			res:      disclosed,
			expected: domain.VerdictMismatch,
		},
		{
			name:     "no accounts disclosed",
			rec:      record("CZ1", "123456789/0100"),
			res:      domain.LookupResult{Identifiers: []string{"CZ1"}, Compliance: []string{"NE"}},
			expected: domain.VerdictNotFound,
		},
		{
			name:     "failed lookup",
			rec:      record("CZ1", "123456789/0100"),
			res:      domain.FailedLookup([]string{"CZ1"}),
			expected: domain.VerdictNotFound,
		},
		{
			name:     "not found takes precedence over malformed",
			rec:      domain.Record{Identifier: "CZ1", NormalizedAccount: "abc/0000", Malformed: true},
			res:      domain.FailedLookup([]string{"CZ1"}),
			expected: domain.VerdictNotFound,
		},
		{
			name:     "flagged record",
			rec:      domain.Record{Identifier: "CZ1", NormalizedAccount: "/0100", Malformed: true},
			res:      disclosed,
			expected: domain.VerdictMalformed,
		},
		{
			name:     "account with letters",
			rec:      record("CZ1", "12AB/0100"),
			res:      disclosed,
			expected: domain.VerdictMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Verdict(tt.rec, tt.res))
		})
	}
}

func TestReconcile(t *testing.T) {
	batch := domain.Batch{
		Index: 4,
		Records: []domain.Record{
			record("CZ1", "123456789/0100"),
			record("CZ2", "555/0300"),
		},
	}

	t.Run("rows follow batch order with positional compliance", func(t *testing.T) {
		res := domain.LookupResult{
			Identifiers: batch.Identifiers(),
			Accounts:    []string{"123456789/0100"},
			Compliance:  []string{"NE", "ANO"},
		}

		rows := Reconcile(batch, res)
		require.Len(t, rows, 2)

		assert.Equal(t, domain.ResultRow{
			Identifier:        "CZ1",
			NormalizedAccount: "123456789/0100",
			PayeeName:         "Payee CZ1",
			Verdict:           domain.VerdictMatch,
			Compliance:        "NE",
		}, rows[0])
		assert.Equal(t, domain.VerdictMismatch, rows[1].Verdict)
		assert.Equal(t, "ANO", rows[1].Compliance)
	})

	t.Run("failed lookup degrades every row", func(t *testing.T) {
		rows := Reconcile(batch, domain.FailedLookup(batch.Identifiers()))
		require.Len(t, rows, 2)
		for _, row := range rows {
			assert.Equal(t, domain.VerdictNotFound, row.Verdict)
			assert.Equal(t, domain.ComplianceUnknown, row.Compliance)
			assert.Equal(t, domain.VerdictUnknownCompliance, row.ComplianceVerdict())
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		assert.Empty(t, Reconcile(domain.Batch{}, domain.LookupResult{}))
	})
}
