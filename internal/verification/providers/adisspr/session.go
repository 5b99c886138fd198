// Package adisspr drives the public VAT payer registry form with a headless
// Chrome instance. One Session owns one browser for a whole run.
package adisspr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"vatcheck/internal/verification/extract"
	"vatcheck/internal/verification/providers"
	dErrors "vatcheck/pkg/domain-errors"
	"vatcheck/pkg/platform/sentinel"
	"vatcheck/pkg/runcontext"
)

const (
	ProviderID = "adisspr"
	Version    = "dph-reg"

	DefaultURL = "https://adisspr.mfcr.cz/dpr/DphReg"

	// Form contract. The registry renders one input per identifier slot
	// with ids form:dt..., and one account table per disclosed payer.
	InputSelector   = `input[id^='form:dt']`
	SubmitSelector  = `[id='form:hledej']`
	ResultsSelector = extract.AccountTableSelector

	// FormSlots is the number of identifier inputs the registry form offers.
	FormSlots = 10
)

// Config holds session settings.
type Config struct {
	URL           string
	CountryPrefix string
	WaitTimeout   time.Duration
	Headless      bool
	BrowserPath   string // Empty means let chromedp locate Chrome
	Logger        *slog.Logger
}

// Session is a chromedp-backed registry session.
type Session struct {
	cfg     Config
	logger  *slog.Logger
	machine *providers.Machine

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// New creates a session. No browser is started until Open.
func New(cfg Config) *Session {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:     cfg,
		logger:  logger.With("provider", ProviderID),
		machine: providers.NewMachine(),
	}
}

func (s *Session) ID() string {
	return ProviderID
}

func (s *Session) Capabilities() providers.Capabilities {
	return providers.Capabilities{
		Protocol:     providers.ProtocolBrowser,
		Version:      Version,
		MaxBatchSize: FormSlots,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() providers.State {
	return s.machine.Current()
}

// Open starts the browser. Failure here is fatal for the run.
//
// The browser outlives cancellation of ctx so an in-flight batch is never
// cut short; Close is the only way to stop it.
func (s *Session) Open(ctx context.Context) error {
	if s.browserCtx != nil {
		return fmt.Errorf("session already open: %w", sentinel.ErrInvalidState)
	}
	if s.machine.Current() == providers.StateClosed {
		return fmt.Errorf("session closed: %w", sentinel.ErrInvalidState)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("headless", s.cfg.Headless),
	)
	if s.cfg.BrowserPath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.BrowserPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			s.logger.Debug("chromedp", "detail", fmt.Sprintf(format, args...))
		}),
	)

	// First Run on a fresh context launches the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return dErrors.Wrap(errors.Join(sentinel.ErrUnavailable, err), dErrors.CodeUnavailable, "failed to start browser")
	}

	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.logger.InfoContext(ctx, "browser session opened", "headless", s.cfg.Headless)
	return nil
}

// Lookup submits identifiers (country-prefixed, at most FormSlots) into the
// form and captures the results page. The prefix is stripped before typing.
func (s *Session) Lookup(ctx context.Context, identifiers []string) (*providers.Page, error) {
	if s.browserCtx == nil || s.machine.Current() == providers.StateClosed {
		return nil, providers.NewProviderError(providers.ErrorInternal, ProviderID, s.machine.Current(),
			"session not open", sentinel.ErrInvalidState)
	}
	if len(identifiers) == 0 {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, s.machine.Current(),
			"no identifiers to look up", nil)
	}

	if err := s.machine.To(providers.StateNavigating); err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, ProviderID, s.machine.Current(), "cannot start lookup", err)
	}

	var inputs []*cdp.Node
	if err := s.step(chromedp.Navigate(s.cfg.URL), chromedp.Nodes(InputSelector, &inputs, chromedp.ByQueryAll)); err != nil {
		return nil, s.fail(err, "loading registry form")
	}
	if len(inputs) < len(identifiers) {
		s.to(providers.StateFailed)
		return nil, providers.NewProviderError(providers.ErrorContractMismatch, ProviderID, providers.StateNavigating,
			fmt.Sprintf("form has %d identifier slots, need %d", len(inputs), len(identifiers)), sentinel.ErrNotFound)
	}

	fill := make(chromedp.Tasks, 0, 2*len(identifiers))
	for i, id := range identifiers {
		node := []cdp.NodeID{inputs[i].NodeID}
		fill = append(fill,
			chromedp.Clear(node, chromedp.ByNodeID),
			chromedp.SendKeys(node, strings.TrimPrefix(id, s.cfg.CountryPrefix), chromedp.ByNodeID),
		)
	}
	if err := s.step(fill); err != nil {
		return nil, s.fail(err, "filling identifier slots")
	}
	s.to(providers.StateFormFilled)

	if err := s.step(chromedp.WaitVisible(SubmitSelector, chromedp.ByQuery), chromedp.Click(SubmitSelector, chromedp.ByQuery)); err != nil {
		return nil, s.fail(err, "submitting form")
	}
	s.to(providers.StateSubmitted)

	if err := s.step(chromedp.WaitReady(ResultsSelector, chromedp.ByQuery)); err != nil {
		return nil, s.fail(err, "waiting for results")
	}

	var html string
	if err := s.step(chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, s.fail(err, "capturing results page")
	}
	s.to(providers.StateResultsReady)

	s.logger.DebugContext(ctx, "batch looked up", "identifiers", len(identifiers), "bytes", len(html))
	return &providers.Page{
		ProviderID:  ProviderID,
		Identifiers: append([]string(nil), identifiers...),
		HTML:        html,
		CapturedAt:  runcontext.Now(ctx),
	}, nil
}

// Close stops the browser. Subsequent calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.browserCtx != nil {
			s.closeErr = chromedp.Cancel(s.browserCtx)
			s.browserCancel()
			s.allocCancel()
		}
		s.to(providers.StateClosed)
		s.logger.Info("browser session closed")
	})
	return s.closeErr
}

// step runs actions bounded by the wait timeout.
func (s *Session) step(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.browserCtx, s.cfg.WaitTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// fail records the terminal state of a lookup and categorizes err.
func (s *Session) fail(err error, action string) error {
	from := s.machine.Current()
	if errors.Is(err, context.DeadlineExceeded) {
		s.to(providers.StateTimedOut)
		return providers.NewProviderError(providers.ErrorTimeout, ProviderID, from, action, err)
	}
	s.to(providers.StateFailed)
	category := providers.ErrorBadData
	if from == providers.StateNavigating {
		category = providers.ErrorProviderOutage
	}
	return providers.NewProviderError(category, ProviderID, from, action, err)
}

func (s *Session) to(next providers.State) {
	if err := s.machine.To(next); err != nil {
		s.logger.Warn("unexpected session transition", "error", err)
	}
}
