// Package domain contains the pure domain model for the Verification bounded
// context.
//
// # Verification Bounded Context
//
// The Verification context checks payee bank accounts against the accounts a
// VAT payer has disclosed to the tax registry, and carries the registry's
// "unreliable payer" flag alongside each verdict.
//
// # Types
//
//   - Record: one admitted input row with its normalized account
//   - Batch: an ordered group of records looked up in one form submission
//   - LookupResult: what the registry disclosed for one batch
//   - Verdict: the reconciliation outcome for one record
//   - ResultRow: one output row
//
// # Domain Purity
//
// This package follows the same rules as the other domain packages:
//
//	✓ No I/O (no browser, filesystem or network access)
//	✓ No context.Context in function signatures
//	✓ No time.Now() calls
//
// The service layer coordinates the registry session, extraction and
// progress reporting, and hands plain values to this package.
package domain
