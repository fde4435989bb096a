package locator

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/earnings-cli/internal/browser"
	"github.com/sells-group/earnings-cli/internal/model"
)

const companyHTML = `<html><body>
<div class="events">
  <div class="event">Q2 2025</div>
  <div class="event">Q1 2025</div>
  <div class="event">Q4 FY2024</div>
</div>
</body></html>`

const quarterHTML = `<html><body>
<div class="event open">
  <span>Q1 2025</span>
  <a href="/files/pcor-q1-2025-pr.pdf"><span>Press Release</span></a>
  <a href="https://cdn.quartr.test/pcor-q1-2025-deck.pdf">Presentation</a>
  <a href="/files/pcor-q1-2025-transcript.pdf">
    Transcript
  </a>
</div>
</body></html>`

func quarterDriver(quarterPage string) *browser.FakeDriver {
	drv := &browser.FakeDriver{}
	drv.SetPage("https://quartr.test/companies/pcor", companyHTML)
	drv.ClickTextFunc = func(text string) error {
		if quarterPage != "" {
			drv.HTML = quarterPage
		}
		return nil
	}
	return drv
}

func TestOpenCompany(t *testing.T) {
	t.Parallel()

	drv := &browser.FakeDriver{}
	l := New(drv, DefaultRules(), "https://quartr.test")

	require.NoError(t, l.OpenCompany(context.Background(), "pcor"))
	assert.Equal(t, []string{searchSelector}, drv.Clicks)
	assert.Equal(t, "PCOR\n", drv.Filled[searchSelector])
	assert.Equal(t, []string{"PCOR"}, drv.TextClicks)
}

func TestOpenCompanyFailureIsLocatorError(t *testing.T) {
	t.Parallel()

	drv := &browser.FakeDriver{
		ClickTextFunc: func(string) error { return eris.New("no results") },
	}
	l := New(drv, DefaultRules(), "https://quartr.test")

	err := l.OpenCompany(context.Background(), "ZZZZ")
	require.Error(t, err)
	var locErr *LocatorError
	assert.ErrorAs(t, err, &locErr)
}

func TestLocateAllThreeKinds(t *testing.T) {
	t.Parallel()

	drv := quarterDriver(quarterHTML)
	l := New(drv, DefaultRules(), "https://quartr.test")

	refs, err := l.Locate(context.Background(), "pcor", model.FiscalPeriod{Year: 2025, Quarter: 1})
	require.NoError(t, err)
	require.Len(t, refs, 3)

	byKind := map[model.DocumentKind]model.DocumentRef{}
	for _, r := range refs {
		byKind[r.Kind] = r
	}

	assert.Equal(t, "https://quartr.test/files/pcor-q1-2025-pr.pdf", byKind[model.KindPressRelease].SourceURL)
	assert.Equal(t, "https://cdn.quartr.test/pcor-q1-2025-deck.pdf", byKind[model.KindPresentation].SourceURL, "absolute links kept as-is")
	assert.Equal(t, "https://quartr.test/files/pcor-q1-2025-transcript.pdf", byKind[model.KindTranscript].SourceURL)
	for _, r := range refs {
		assert.Equal(t, "PCOR", r.Ticker)
		assert.Equal(t, model.FiscalPeriod{Year: 2025, Quarter: 1}, r.Period)
	}

	assert.Equal(t, []string{"Q1 2025"}, drv.TextClicks)
}

func TestLocateMissingTranscript(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<span>Q1 2025</span>
<a href="/pr.pdf">Press Release</a>
<a href="/deck.pdf">Presentation</a>
</body></html>`

	drv := quarterDriver(page)
	drv.HTML = page
	l := New(drv, DefaultRules(), "https://quartr.test")

	refs, err := l.Locate(context.Background(), "PCOR", model.FiscalPeriod{Year: 2025, Quarter: 1})
	require.NoError(t, err)
	require.Len(t, refs, 2, "missing kind is absent, not an error")
	for _, r := range refs {
		assert.NotEqual(t, model.KindTranscript, r.Kind)
	}
}

func TestLocateFiscalYearTitleFallback(t *testing.T) {
	t.Parallel()

	drv := quarterDriver(`<html><body><span>Q4 FY2024</span><a href="/t.pdf">Transcript</a></body></html>`)
	l := New(drv, DefaultRules(), "https://quartr.test")

	refs, err := l.Locate(context.Background(), "PCOR", model.FiscalPeriod{Year: 2024, Quarter: 4})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, []string{"Q4 FY2024"}, drv.TextClicks, "matched the FY pattern")
}

func TestLocateOffCyclePeriodYieldsNoRefs(t *testing.T) {
	t.Parallel()

	drv := quarterDriver(quarterHTML)
	l := New(drv, DefaultRules(), "https://quartr.test")

	refs, err := l.Locate(context.Background(), "PCOR", model.FiscalPeriod{Year: 2019, Quarter: 3})
	require.NoError(t, err, "a period the company never reported is not an error")
	assert.Empty(t, refs)
	assert.Empty(t, drv.TextClicks, "nothing was clicked")
}

func TestLocateClickFailureIsLocatorError(t *testing.T) {
	t.Parallel()

	drv := &browser.FakeDriver{}
	drv.SetPage("https://quartr.test/companies/pcor", companyHTML)
	drv.ClickTextFunc = func(string) error { return eris.New("render timeout") }

	l := New(drv, DefaultRules(), "https://quartr.test")
	_, err := l.Locate(context.Background(), "PCOR", model.FiscalPeriod{Year: 2025, Quarter: 1})
	require.Error(t, err)
	var locErr *LocatorError
	assert.ErrorAs(t, err, &locErr)
}
