// Package extract reads disclosed bank accounts and compliance flags out of
// a registry results page.
//
// Accounts are pooled across the page. Compliance is read by batch
// position, first from the registry's fixed layout and then, if the layout
// has moved, from the row carrying the marker label.
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vatcheck/internal/verification/domain"
	"vatcheck/internal/verification/providers"
	pstrings "vatcheck/pkg/platform/strings"
)

const (
	// AccountTableSelector matches the body of every account sub-table.
	AccountTableSelector = `table[id^='tableUcty'] tbody`

	// DefaultMarker labels the compliance field on the results page.
	DefaultMarker = "Nespolehlivý plátce"

	// positionalCompliance locates the compliance cell of the payer rendered
	// at a 1-based position.
	positionalCompliance = `body > div > form > table > tbody > tr:nth-of-type(%d) > td > table > tbody > tr:nth-of-type(9) > td > table > tbody > tr > td:nth-of-type(2)`
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithMarker overrides the compliance label searched for when the fixed
// layout yields nothing.
func WithMarker(marker string) Option {
	return func(e *Extractor) {
		if marker != "" {
			e.marker = marker
		}
	}
}

// WithLogger sets the logger used for degraded pages.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Extractor is stateless and safe for concurrent use.
type Extractor struct {
	marker    string
	separator string
	logger    *slog.Logger
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		marker:    DefaultMarker,
		separator: ":",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails. Pages that cannot be parsed yield a failed lookup.
func (e *Extractor) Extract(page *providers.Page, identifiers []string) domain.LookupResult {
	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return domain.FailedLookup(identifiers)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		e.logger.Warn("unparseable results page", "provider", page.ProviderID, "error", err)
		return domain.FailedLookup(identifiers)
	}

	result := domain.LookupResult{
		Identifiers: append([]string(nil), identifiers...),
		Accounts:    Accounts(doc),
		Compliance:  make([]string, len(identifiers)),
	}

	var markerRows *goquery.Selection
	for i := range identifiers {
		flag := positional(doc, i)
		if flag == "" {
			if markerRows == nil {
				markerRows = e.markerRows(doc)
			}
			flag = e.fromMarkerRow(markerRows.Eq(i))
		}
		if flag == "" {
			flag = domain.ComplianceUnknown
		}
		result.Compliance[i] = flag
	}
	return result
}

// Accounts returns the first token of every account sub-table row, trimmed
// and deduplicated in page order.
func Accounts(doc *goquery.Document) []string {
	var accounts []string
	doc.Find(AccountTableSelector).Each(func(_ int, body *goquery.Selection) {
		body.ChildrenFiltered("tr").Each(func(_ int, row *goquery.Selection) {
			accounts = append(accounts, pstrings.FirstField(row.Text()))
		})
	})
	return pstrings.DedupeAndTrim(accounts)
}

func positional(doc *goquery.Document, i int) string {
	cell := doc.Find(fmt.Sprintf(positionalCompliance, i+1)).First()
	return strings.TrimSpace(cell.Text())
}

// markerRows returns the innermost rows mentioning the marker, in page order.
func (e *Extractor) markerRows(doc *goquery.Document) *goquery.Selection {
	mentions := func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), e.marker)
	}
	return doc.Find("tr").FilterFunction(func(i int, row *goquery.Selection) bool {
		return mentions(i, row) && row.Find("tr").FilterFunction(mentions).Length() == 0
	})
}

// fromMarkerRow reads the flag following the marker, either in the same
// cell after the separator or as the first token of the next cell.
func (e *Extractor) fromMarkerRow(row *goquery.Selection) string {
	if row.Length() == 0 {
		return ""
	}
	cells := row.ChildrenFiltered("td, th")
	label := cells.FilterFunction(func(_ int, c *goquery.Selection) bool {
		return strings.Contains(c.Text(), e.marker)
	}).First()
	if label.Length() == 0 {
		return ""
	}

	_, after, _ := strings.Cut(label.Text(), e.marker)
	if flag, ok := pstrings.FieldAfter(after, e.separator); ok {
		return flag
	}
	return pstrings.FirstField(label.NextFiltered("td, th").Text())
}
