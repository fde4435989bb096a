// Package fetcher downloads located documents over plain HTTP, reusing the
// browsing session's cookies so downloads stay off the render loop.
package fetcher

import (
	"context"
	"net/http"
)

// Fetcher defines the interface for downloading remote documents.
type Fetcher interface {
	// Download fetches the URL and returns the response body bytes.
	Download(ctx context.Context, url string) ([]byte, error)

	// SetCookies installs session cookies used on subsequent downloads.
	SetCookies(cookies []*http.Cookie)
}
