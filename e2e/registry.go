package e2e

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"vatcheck/internal/verification/ports"
	"vatcheck/internal/verification/providers"
	"vatcheck/pkg/platform/sentinel"
)

const fakeProviderID = "fake-registry"

type payer struct {
	accounts   []string
	compliance string
}

// FakeRegistry renders results pages in the registry's layout from an
// in-memory payer table.
type FakeRegistry struct {
	mu       sync.Mutex
	payers   map[string]payer
	timeouts map[string]bool
	opened   int
	closed   int
}

func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{
		payers:   make(map[string]payer),
		timeouts: make(map[string]bool),
	}
}

// Disclose registers a payer with its published accounts and compliance flag.
func (r *FakeRegistry) Disclose(identifier string, accounts []string, compliance string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payers[identifier] = payer{accounts: accounts, compliance: compliance}
}

// TimeOutOn makes every lookup containing identifier time out.
func (r *FakeRegistry) TimeOutOn(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts[identifier] = true
}

// Sessions returns how many sessions were opened and closed.
func (r *FakeRegistry) Sessions() (opened, closed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, r.closed
}

// NewSession returns a fresh session bound to the registry.
func (r *FakeRegistry) NewSession() (ports.Session, error) {
	return &fakeSession{registry: r, machine: providers.NewMachine()}, nil
}

type fakeSession struct {
	registry *FakeRegistry
	machine  *providers.Machine
	open     bool
}

func (s *fakeSession) ID() string { return fakeProviderID }

func (s *fakeSession) Capabilities() providers.Capabilities {
	return providers.Capabilities{Protocol: providers.ProtocolBrowser, Version: "e2e", MaxBatchSize: 10}
}

func (s *fakeSession) Open(context.Context) error {
	if s.open || s.machine.Current() == providers.StateClosed {
		return sentinel.ErrInvalidState
	}
	s.open = true
	s.registry.mu.Lock()
	s.registry.opened++
	s.registry.mu.Unlock()
	return nil
}

func (s *fakeSession) Lookup(_ context.Context, identifiers []string) (*providers.Page, error) {
	if !s.open {
		return nil, providers.NewProviderError(providers.ErrorInternal, fakeProviderID, s.machine.Current(), "session not open", sentinel.ErrInvalidState)
	}
	for _, next := range []providers.State{providers.StateNavigating, providers.StateFormFilled, providers.StateSubmitted} {
		if err := s.machine.To(next); err != nil {
			return nil, err
		}
	}

	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()

	for _, id := range identifiers {
		if s.registry.timeouts[id] {
			_ = s.machine.To(providers.StateTimedOut)
			return nil, providers.NewProviderError(providers.ErrorTimeout, fakeProviderID, providers.StateSubmitted,
				"waiting for results", context.DeadlineExceeded)
		}
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div><form id="form"><table><tbody>`)
	for i, id := range identifiers {
		p := s.registry.payers[id]
		b.WriteString(`<tr><td><table><tbody>`)
		fmt.Fprintf(&b, `<tr><td>DIČ: %s</td></tr>`, html.EscapeString(id))
		for row := 2; row <= 7; row++ {
			fmt.Fprintf(&b, `<tr><td>pole %d</td></tr>`, row)
		}
		fmt.Fprintf(&b, `<tr><td><table id="tableUcty%d"><tbody>`, i)
		for _, acc := range p.accounts {
			fmt.Fprintf(&b, `<tr><td>%s zveřejněno 1.1.2020</td></tr>`, html.EscapeString(acc))
		}
		b.WriteString(`</tbody></table></td></tr>`)
		fmt.Fprintf(&b, `<tr><td><table><tbody><tr><td>Nespolehlivý plátce:</td><td>%s</td></tr></tbody></table></td></tr>`,
			html.EscapeString(p.compliance))
		b.WriteString(`</tbody></table></td></tr>`)
	}
	b.WriteString(`</tbody></table></form></div></body></html>`)

	_ = s.machine.To(providers.StateResultsReady)
	return &providers.Page{
		ProviderID:  fakeProviderID,
		Identifiers: append([]string(nil), identifiers...),
		HTML:        b.String(),
		CapturedAt:  time.Now(),
	}, nil
}

func (s *fakeSession) Close() error {
	if s.machine.Current() == providers.StateClosed {
		return nil
	}
	_ = s.machine.To(providers.StateClosed)
	s.registry.mu.Lock()
	s.registry.closed++
	s.registry.mu.Unlock()
	return nil
}
