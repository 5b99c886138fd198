package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Sessions and adapters return
// these (optionally wrapped) so services can translate them into domain
// errors or verdicts.
//
//   - ErrNotFound: an expected page element or record is absent
//   - ErrInvalidState: resource is in the wrong lifecycle state for the call
//   - ErrUnavailable: external resource cannot be reached or started
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
