// Package providers holds the vocabulary shared by registry session
// implementations: the session state machine, the raw page handed to the
// extractor, and the normalized error taxonomy.
package providers

import (
	"fmt"
	"time"
)

// Protocol defines how a session talks to the registry
type Protocol string

const ProtocolBrowser Protocol = "browser"

// State is a registry session lifecycle state.
//
//	IDLE → NAVIGATING → FORM_FILLED → SUBMITTED → {RESULTS_READY | TIMED_OUT}
//
// Every lookup starts again from NAVIGATING. FAILED marks a lookup that
// ended before submission (navigation error, form contract mismatch).
// CLOSED is terminal.
type State string

const (
	StateIdle         State = "IDLE"
	StateNavigating   State = "NAVIGATING"
	StateFormFilled   State = "FORM_FILLED"
	StateSubmitted    State = "SUBMITTED"
	StateResultsReady State = "RESULTS_READY"
	StateTimedOut     State = "TIMED_OUT"
	StateFailed       State = "FAILED"
	StateClosed       State = "CLOSED"
)

var transitions = map[State][]State{
	StateIdle:         {StateNavigating, StateClosed},
	StateNavigating:   {StateFormFilled, StateTimedOut, StateFailed, StateClosed},
	StateFormFilled:   {StateSubmitted, StateTimedOut, StateFailed, StateClosed},
	StateSubmitted:    {StateResultsReady, StateTimedOut, StateFailed, StateClosed},
	StateResultsReady: {StateNavigating, StateClosed},
	StateTimedOut:     {StateNavigating, StateClosed},
	StateFailed:       {StateNavigating, StateClosed},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Machine tracks a session's state and rejects illegal transitions.
// It is not safe for concurrent use; sessions are single-owner.
type Machine struct {
	current State
}

// NewMachine returns a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{current: StateIdle}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.current
}

// To moves the machine to next.
func (m *Machine) To(next State) error {
	if !m.current.CanTransitionTo(next) {
		return fmt.Errorf("illegal session transition %s → %s", m.current, next)
	}
	m.current = next
	return nil
}

// Capabilities describes what a session implementation supports
type Capabilities struct {
	Protocol     Protocol
	Version      string
	MaxBatchSize int // Number of identifier slots on the registry form
}

// Page is the raw registry output captured for one batch.
type Page struct {
	ProviderID  string
	Identifiers []string // Full (country-prefixed) identifiers in slot order
	HTML        string
	CapturedAt  time.Time
}
