package domain

// ResultRow is one row of the output table. Rows are appended in batch
// processing order and never modified afterwards.
type ResultRow struct {
	Identifier        string
	NormalizedAccount string
	PayeeName         string
	Verdict           Verdict
	Compliance        string
}

// ComplianceVerdict returns VerdictUnknownCompliance when the registry gave
// no compliance flag for the row, otherwise the account verdict.
func (r ResultRow) ComplianceVerdict() Verdict {
	if r.Compliance == "" || r.Compliance == ComplianceUnknown {
		return VerdictUnknownCompliance
	}
	return r.Verdict
}

// Cells returns the row in output column order.
func (r ResultRow) Cells() []string {
	compliance := r.Compliance
	if compliance == "" {
		compliance = ComplianceUnknown
	}
	return []string{
		r.Identifier,
		r.NormalizedAccount,
		r.PayeeName,
		r.Verdict.Symbol(),
		compliance,
	}
}
