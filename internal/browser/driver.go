// Package browser abstracts the authenticated, JavaScript-rendered browsing
// capability behind a small driver interface so the pipeline never touches a
// concrete automation library.
package browser

import (
	"context"
	"net/http"
)

// Driver is one stateful browsing context. It is a serially-reusable
// resource: callers must not issue two operations concurrently. Every
// operation honors its context deadline; nothing blocks indefinitely.
type Driver interface {
	// Navigate loads the URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until the CSS selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error

	// Click clicks the first element matching the CSS selector.
	Click(ctx context.Context, selector string) error

	// ClickText clicks the first element whose text contains the given string.
	ClickText(ctx context.Context, text string) error

	// Fill focuses the element matching the CSS selector and types the value.
	Fill(ctx context.Context, selector, value string) error

	// OuterHTML returns the rendered document markup.
	OuterHTML(ctx context.Context) (string, error)

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// Cookies exports the session cookie jar for out-of-band downloads.
	Cookies(ctx context.Context) ([]*http.Cookie, error)

	// Close tears down the browsing context and the underlying browser.
	Close() error
}
