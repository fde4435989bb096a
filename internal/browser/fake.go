package browser

import (
	"context"
	"net/http"
	"sync"

	"github.com/rotisserie/eris"
)

// FakeDriver is an in-memory Driver for tests: it serves canned HTML per URL
// and records every interaction. Hooks override individual operations.
type FakeDriver struct {
	mu sync.Mutex

	// Pages maps URL -> rendered HTML served on Navigate.
	Pages map[string]string
	// HTML is the current page markup; Navigate replaces it from Pages.
	HTML string
	// URL is the current location.
	URL string
	// Jar is returned by Cookies.
	Jar []*http.Cookie

	// Hooks. A nil hook means the default recording behavior.
	NavigateFunc  func(url string) error
	ClickTextFunc func(text string) error
	ClickFunc     func(selector string) error
	FillFunc      func(selector, value string) error

	// Recorded interactions.
	Navigations []string
	Clicks      []string
	TextClicks  []string
	Waits       []string
	Filled      map[string]string
	Closed      bool
}

// Compile-time interface check.
var _ Driver = (*FakeDriver)(nil)

func (f *FakeDriver) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, url)
	if f.NavigateFunc != nil {
		if err := f.NavigateFunc(url); err != nil {
			return err
		}
	}
	f.URL = url
	if html, ok := f.Pages[url]; ok {
		f.HTML = html
	}
	return nil
}

func (f *FakeDriver) WaitVisible(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Waits = append(f.Waits, selector)
	return nil
}

func (f *FakeDriver) Click(_ context.Context, selector string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Clicks = append(f.Clicks, selector)
	if f.ClickFunc != nil {
		return f.ClickFunc(selector)
	}
	return nil
}

func (f *FakeDriver) ClickText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TextClicks = append(f.TextClicks, text)
	if f.ClickTextFunc != nil {
		return f.ClickTextFunc(text)
	}
	return nil
}

func (f *FakeDriver) Fill(_ context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Filled == nil {
		f.Filled = make(map[string]string)
	}
	f.Filled[selector] = value
	if f.FillFunc != nil {
		return f.FillFunc(selector, value)
	}
	return nil
}

func (f *FakeDriver) OuterHTML(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.HTML == "" {
		return "", eris.New("fake driver: no page loaded")
	}
	return f.HTML, nil
}

func (f *FakeDriver) Location(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URL, nil
}

func (f *FakeDriver) Cookies(context.Context) ([]*http.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Jar, nil
}

func (f *FakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// SetPage swaps the current page markup and URL, as a navigation would.
func (f *FakeDriver) SetPage(url, html string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.URL = url
	f.HTML = html
}
