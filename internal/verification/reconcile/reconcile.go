// Package reconcile decides the verdict for each record of a batch against
// what the registry disclosed.
package reconcile

import "vatcheck/internal/verification/domain"

// Verdict classifies one record.
//
// Precedence:
//  1. NOT_FOUND when the registry disclosed no accounts for the batch
//  2. MALFORMED when the record's account is not well formed
//  3. MATCH when the account is in the pooled disclosed set, else MISMATCH
//
// Membership is pooled across the batch: an account disclosed for a
// different identifier of the same batch still matches.
func Verdict(rec domain.Record, res domain.LookupResult) domain.Verdict {
	switch {
	case !res.HasAccounts():
		return domain.VerdictNotFound
	case !rec.HasWellFormedAccount():
		return domain.VerdictMalformed
	case res.Discloses(rec.NormalizedAccount):
		return domain.VerdictMatch
	default:
		return domain.VerdictMismatch
	}
}

// Reconcile returns one row per batch record, in batch order. Compliance is
// taken from the record's batch position.
func Reconcile(batch domain.Batch, res domain.LookupResult) []domain.ResultRow {
	rows := make([]domain.ResultRow, len(batch.Records))
	for i, rec := range batch.Records {
		rows[i] = domain.ResultRow{
			Identifier:        rec.Identifier,
			NormalizedAccount: rec.NormalizedAccount,
			PayeeName:         rec.PayeeName,
			Verdict:           Verdict(rec, res),
			Compliance:        res.ComplianceAt(i),
		}
	}
	return rows
}
