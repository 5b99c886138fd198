package domain

import "slices"

// ComplianceUnknown is the compliance flag used when the registry page did
// not yield one.
const ComplianceUnknown = "NEZNÁMÝ"

// LookupResult is what the registry disclosed for one batch.
//
// Accounts is pooled across the whole batch: membership is tested against
// the pool, not against the sub-table rendered for a specific identifier.
// Compliance is positional, index i belonging to the i-th submitted record.
//
// Invariants:
//   - Failed results carry no accounts
//   - len(Compliance) == len(Identifiers)
type LookupResult struct {
	Identifiers []string
	Accounts    []string
	Compliance  []string
	Failed      bool
}

// FailedLookup builds the result used when the session could not produce a
// results page for the batch: no accounts, unknown compliance everywhere.
func FailedLookup(identifiers []string) LookupResult {
	compliance := make([]string, len(identifiers))
	for i := range compliance {
		compliance[i] = ComplianceUnknown
	}
	return LookupResult{
		Identifiers: slices.Clone(identifiers),
		Compliance:  compliance,
		Failed:      true,
	}
}

// HasAccounts reports whether any account was disclosed for the batch.
func (l LookupResult) HasAccounts() bool {
	return !l.Failed && len(l.Accounts) > 0
}

// Discloses reports whether account appears verbatim in the pooled set.
// Comparison is exact: leading zeros and separator placement matter.
func (l LookupResult) Discloses(account string) bool {
	return slices.Contains(l.Accounts, account)
}

// ComplianceAt returns the flag for batch position i, or ComplianceUnknown.
func (l LookupResult) ComplianceAt(i int) string {
	if i < 0 || i >= len(l.Compliance) || l.Compliance[i] == "" {
		return ComplianceUnknown
	}
	return l.Compliance[i]
}

// ComplianceFor returns the flag for the first position holding identifier.
func (l LookupResult) ComplianceFor(identifier string) string {
	return l.ComplianceAt(slices.Index(l.Identifiers, identifier))
}
