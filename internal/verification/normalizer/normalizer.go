// Package normalizer turns raw table rows into comparable Records.
//
// It owns three business rules: which rows are admitted at all (payment
// method, country prefix, settlement status), how the account and bank code
// cells are canonicalized into "<account>/<bank code>", and whether repeated
// (identifier, account) pairs collapse into one record.
package normalizer

import (
	"regexp"
	"strings"

	"vatcheck/internal/verification/domain"
)

const (
	// DefaultBankCode is used when the bank-code cell holds no digits.
	DefaultBankCode = "0000"
	bankCodeWidth   = 4

	DefaultTransferMethod = "PREVOD"
	DefaultCountryPrefix  = "CZ"
)

var (
	digitRun      = regexp.MustCompile(`\d+`)
	accountPrefix = regexp.MustCompile(`^[0-9-]+`)
)

// Policy configures admission and deduplication.
type Policy struct {
	// TransferMethod is the payment-method value admitted into the pipeline.
	TransferMethod string
	// CountryPrefix is the identifier prefix admitted into the pipeline.
	CountryPrefix string
	// RequireUnsettled additionally drops rows with a non-empty settlement status.
	RequireUnsettled bool
	// Dedup collapses records sharing (identifier, normalized account).
	Dedup bool
}

// DefaultPolicy admits bank transfers to CZ payers and deduplicates.
func DefaultPolicy() Policy {
	return Policy{
		TransferMethod: DefaultTransferMethod,
		CountryPrefix:  DefaultCountryPrefix,
		Dedup:          true,
	}
}

// Outcome is the result of normalizing a table.
type Outcome struct {
	Records    []domain.Record
	Excluded   int
	Duplicates int
	Malformed  int
}

// Normalizer applies a Policy to raw rows.
type Normalizer struct {
	policy Policy
}

// New creates a Normalizer for policy.
func New(policy Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

// NormalizeBankCode takes the first run of digits in raw, defaults to
// "0000" and returns exactly four digits.
func NormalizeBankCode(raw string) string {
	code := digitRun.FindString(raw)
	if code == "" {
		return DefaultBankCode
	}
	for len(code) > bankCodeWidth && code[0] == '0' {
		code = code[1:]
	}
	if len(code) > bankCodeWidth {
		return code[:bankCodeWidth]
	}
	return strings.Repeat("0", bankCodeWidth-len(code)) + code
}

// NormalizeAccountNumber strips a trailing ".0" float artifact and keeps the
// leading run of digits and hyphens. ok is false when no such run exists.
func NormalizeAccountNumber(raw string) (account string, ok bool) {
	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), ".0")
	account = accountPrefix.FindString(cleaned)
	return account, account != ""
}

// NormalizeAccount builds "<account>/<bank code>". When no account digits
// can be extracted, the raw account text is kept so the output shows what
// was wrong, and malformed is true.
func NormalizeAccount(rawAccount, rawBankCode string) (normalized string, malformed bool) {
	bank := NormalizeBankCode(rawBankCode)
	account, ok := NormalizeAccountNumber(rawAccount)
	if !ok {
		return strings.TrimSpace(rawAccount) + "/" + bank, true
	}
	return account + "/" + bank, false
}

// Admit reports whether row passes the admission filter. Rows that fail it
// are dropped silently; that is a scope rule, not an error.
func (n *Normalizer) Admit(row domain.RawRow) bool {
	if strings.TrimSpace(row.PaymentMethod) != n.policy.TransferMethod {
		return false
	}
	id := strings.TrimSpace(row.Identifier)
	if len(id) <= len(n.policy.CountryPrefix) || !strings.HasPrefix(id, n.policy.CountryPrefix) {
		return false
	}
	if n.policy.RequireUnsettled && strings.TrimSpace(row.SettlementStatus) != "" {
		return false
	}
	return true
}

// Record normalizes a single admitted row.
func (n *Normalizer) Record(row domain.RawRow) domain.Record {
	normalized, malformed := NormalizeAccount(row.AccountNumber, row.BankCode)
	return domain.Record{
		Identifier:        strings.TrimSpace(row.Identifier),
		RawAccountNumber:  row.AccountNumber,
		RawBankCode:       row.BankCode,
		PayeeName:         strings.TrimSpace(row.PayeeName),
		NormalizedAccount: normalized,
		Malformed:         malformed,
	}
}

// Normalize filters, normalizes and optionally deduplicates rows, keeping
// input order and the first occurrence of each duplicate.
func (n *Normalizer) Normalize(rows []domain.RawRow) Outcome {
	out := Outcome{Records: make([]domain.Record, 0, len(rows))}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if !n.Admit(row) {
			out.Excluded++
			continue
		}
		rec := n.Record(row)
		if n.policy.Dedup {
			if _, dup := seen[rec.Key()]; dup {
				out.Duplicates++
				continue
			}
			seen[rec.Key()] = struct{}{}
		}
		if !rec.HasWellFormedAccount() {
			out.Malformed++
		}
		out.Records = append(out.Records, rec)
	}

	return out
}
