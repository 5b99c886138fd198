package domain

// Verdict is the final reconciliation outcome for one record.
type Verdict string

const (
	VerdictMatch             Verdict = "MATCH"
	VerdictMismatch          Verdict = "MISMATCH"
	VerdictNotFound          Verdict = "NOT_FOUND"
	VerdictMalformed         Verdict = "MALFORMED"
	VerdictUnknownCompliance Verdict = "UNKNOWN_COMPLIANCE"
)

// Symbols written to the output table.
const (
	SymbolMatch     = "✔"
	SymbolMismatch  = "Neshoda účtu"
	SymbolNotFound  = "Nenalezen účet"
	SymbolMalformed = "Neplatný účet"
)

// Verdicts lists every verdict in reporting order.
var Verdicts = []Verdict{
	VerdictMatch,
	VerdictMismatch,
	VerdictNotFound,
	VerdictMalformed,
	VerdictUnknownCompliance,
}

// IsValid reports whether v is one of the known verdicts.
func (v Verdict) IsValid() bool {
	for _, known := range Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

// Symbol returns the human-readable marker used in the output table.
func (v Verdict) Symbol() string {
	switch v {
	case VerdictMatch:
		return SymbolMatch
	case VerdictMismatch:
		return SymbolMismatch
	case VerdictNotFound:
		return SymbolNotFound
	case VerdictMalformed:
		return SymbolMalformed
	case VerdictUnknownCompliance:
		return ComplianceUnknown
	default:
		return string(v)
	}
}

func (v Verdict) String() string {
	return string(v)
}
