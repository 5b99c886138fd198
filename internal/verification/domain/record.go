package domain

import (
	"regexp"
	"strings"
)

var accountPattern = regexp.MustCompile(`^[0-9/-]+$`)

// IsWellFormedAccount reports whether account contains only digits, hyphens
// and slashes. The empty string is not well formed.
func IsWellFormedAccount(account string) bool {
	return accountPattern.MatchString(account)
}

// Record is one input row admitted into the pipeline.
//
// Invariants:
//   - Identifier is non-empty and country-prefixed
//   - NormalizedAccount is "<account>/<4-digit bank code>"; it is derived
//     once by the normalizer and never rewritten
//   - Malformed is set by the normalizer when no account digits could be
//     extracted; NormalizedAccount then carries the raw text for display
type Record struct {
	Identifier        string
	RawAccountNumber  string
	RawBankCode       string
	PayeeName         string
	NormalizedAccount string
	Malformed         bool
}

// LocalIdentifier returns the identifier with its country prefix removed,
// which is the form the registry's input slots expect.
func (r Record) LocalIdentifier(countryPrefix string) string {
	return strings.TrimPrefix(r.Identifier, countryPrefix)
}

// HasWellFormedAccount reports whether the record was not flagged by the
// normalizer and its normalized account passes IsWellFormedAccount.
func (r Record) HasWellFormedAccount() bool {
	return !r.Malformed && IsWellFormedAccount(r.NormalizedAccount)
}

// Key identifies a record for deduplication.
func (r Record) Key() string {
	return r.Identifier + "\x00" + r.NormalizedAccount
}

// Batch is an ordered group of records looked up together.
type Batch struct {
	Index   int
	Records []Record
}

// Size returns the number of records in the batch.
func (b Batch) Size() int {
	return len(b.Records)
}

// Identifiers returns the batch's identifiers in batch order.
func (b Batch) Identifiers() []string {
	ids := make([]string, len(b.Records))
	for i, r := range b.Records {
		ids[i] = r.Identifier
	}
	return ids
}

// RawRow is one row of the uploaded table before normalization. Line is the
// 1-based spreadsheet row it came from, kept for diagnostics.
type RawRow struct {
	Line             int
	PaymentMethod    string
	Identifier       string
	AccountNumber    string
	BankCode         string
	PayeeName        string
	SettlementStatus string
}
