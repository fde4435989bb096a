// Package locator finds the download links for a ticker's earnings documents
// on the rendered source site.
package locator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/browser"
	"github.com/sells-group/earnings-cli/internal/model"
)

// LocatorError marks a page-structure or timeout failure while navigating
// the source site. The orchestrator records it against the whole period.
type LocatorError struct {
	Err error
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("locator: %v", e.Err)
}

func (e *LocatorError) Unwrap() error { return e.Err }

const searchSelector = `input[placeholder="Search"]`

// Locator navigates the source site through a browser driver and extracts
// document references from the rendered DOM.
type Locator struct {
	drv     browser.Driver
	rules   Rules
	baseURL string
}

// New creates a Locator bound to one browsing session.
func New(drv browser.Driver, rules Rules, baseURL string) *Locator {
	return &Locator{drv: drv, rules: rules, baseURL: baseURL}
}

// OpenCompany searches for the ticker and opens its company page. Called once
// per job; subsequent Locate calls work from that page.
func (l *Locator) OpenCompany(ctx context.Context, ticker string) error {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	if err := l.drv.Click(ctx, searchSelector); err != nil {
		return &LocatorError{Err: eris.Wrap(err, "focus search")}
	}
	// Trailing newline submits the search.
	if err := l.drv.Fill(ctx, searchSelector, symbol+"\n"); err != nil {
		return &LocatorError{Err: eris.Wrap(err, "search ticker")}
	}
	if err := l.drv.ClickText(ctx, symbol); err != nil {
		return &LocatorError{Err: eris.Wrapf(err, "open company %s", symbol)}
	}

	zap.L().Debug("company page opened", zap.String("ticker", symbol))
	return nil
}

// Locate opens the period's section of the company page and extracts one
// DocumentRef per document kind found. A kind without a link is simply
// absent. A period not present on the page at all yields zero refs and no
// error: off-cycle quarters are not a failure.
func (l *Locator) Locate(ctx context.Context, ticker string, period model.FiscalPeriod) ([]model.DocumentRef, error) {
	html, err := l.drv.OuterHTML(ctx)
	if err != nil {
		return nil, &LocatorError{Err: eris.Wrap(err, "read company page")}
	}

	title, ok := l.findQuarterTitle(html, period)
	if !ok {
		zap.L().Info("period not listed on company page",
			zap.String("ticker", ticker),
			zap.String("period", period.String()),
		)
		return nil, nil
	}

	if err := l.drv.ClickText(ctx, title); err != nil {
		return nil, &LocatorError{Err: eris.Wrapf(err, "open quarter %q", title)}
	}

	html, err = l.drv.OuterHTML(ctx)
	if err != nil {
		return nil, &LocatorError{Err: eris.Wrap(err, "read quarter page")}
	}

	refs, err := l.extractRefs(html, ticker, period)
	if err != nil {
		return nil, &LocatorError{Err: err}
	}
	return refs, nil
}

// findQuarterTitle returns the first expanded quarter pattern present in the
// rendered page text.
func (l *Locator) findQuarterTitle(html string, period model.FiscalPeriod) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	text := normalizeSpace(doc.Text())
	for _, title := range l.rules.QuarterTitles(period) {
		if strings.Contains(text, title) {
			return title, true
		}
	}
	return "", false
}

// extractRefs pulls one download link per document kind out of the rendered
// markup, resolving relative hrefs against the site base URL.
func (l *Locator) extractRefs(html, ticker string, period model.FiscalPeriod) ([]model.DocumentRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse quarter page")
	}

	base, err := url.Parse(l.baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "parse base url %s", l.baseURL)
	}

	var refs []model.DocumentRef
	for _, kind := range model.Kinds() {
		href, found := l.findLink(doc, l.rules.Labels[kind])
		if !found {
			continue
		}
		u, err := url.Parse(href)
		if err != nil {
			zap.L().Warn("skipping unparseable document link",
				zap.String("kind", string(kind)),
				zap.String("href", href),
			)
			continue
		}
		refs = append(refs, model.DocumentRef{
			Ticker:    strings.ToUpper(ticker),
			Period:    period,
			Kind:      kind,
			SourceURL: base.ResolveReference(u).String(),
		})
	}
	return refs, nil
}

// findLink returns the href of the first anchor whose text contains one of
// the labels.
func (l *Locator) findLink(doc *goquery.Document, labels []string) (string, bool) {
	var href string
	var found bool
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := normalizeSpace(sel.Text())
		for _, label := range labels {
			if strings.Contains(text, label) {
				href, _ = sel.Attr("href")
				found = true
				return false
			}
		}
		return true
	})
	return href, found
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
