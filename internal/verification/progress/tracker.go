package progress

import (
	"context"
	"sync"

	"vatcheck/internal/verification/ports"
)

// Snapshot is the latest known state of a run.
type Snapshot struct {
	RunID         string   `json:"run_id,omitempty"`
	Started       bool     `json:"started"`
	Completed     int      `json:"completed_batches"`
	Total         int      `json:"total_batches"`
	Percent       int      `json:"percent"`
	ETASeconds    float64  `json:"eta_seconds"`
	FailedBatches int      `json:"failed_batches"`
	Current       []string `json:"last_identifiers,omitempty"`
}

// Tracker remembers the latest event so it can be read from another
// goroutine, e.g. an HTTP status endpoint.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) BatchCompleted(_ context.Context, e ports.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.RunID != e.RunID {
		t.snap = Snapshot{RunID: e.RunID}
	}
	t.snap.Started = true
	t.snap.Completed = e.Completed()
	t.snap.Total = e.TotalBatches
	t.snap.Percent = int(e.Fraction() * 100)
	t.snap.ETASeconds = e.Remaining.Seconds()
	t.snap.Current = append([]string(nil), e.Identifiers...)
	if e.Failed {
		t.snap.FailedBatches++
	}
}

// Snapshot returns a copy of the latest state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.snap
	s.Current = append([]string(nil), t.snap.Current...)
	return s
}
