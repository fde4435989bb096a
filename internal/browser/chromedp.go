package browser

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/earnings-cli/internal/config"
)

// Chrome implements Driver on a headless Chrome instance via chromedp.
type Chrome struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
}

// Compile-time interface check.
var _ Driver = (*Chrome)(nil)

// NewChrome launches a browser and opens one tab. The caller owns the
// returned driver and must Close it.
func NewChrome(cfg config.BrowserConfig) (*Chrome, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	// Force the browser to start now so a missing binary fails fast.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, eris.Wrap(err, "browser: launch chrome")
	}

	navTimeout := cfg.NavTimeout()
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}

	return &Chrome{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		navTimeout:  navTimeout,
	}, nil
}

// run executes actions against the tab, bounded by the caller's context and
// the configured navigation timeout.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	timeout := c.navTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	tctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tctx, actions...) }()

	select {
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	return eris.Wrapf(err, "browser: navigate %s", url)
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string) error {
	err := c.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	return eris.Wrapf(err, "browser: wait visible %q", selector)
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	err := c.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	return eris.Wrapf(err, "browser: click %q", selector)
}

func (c *Chrome) ClickText(ctx context.Context, text string) error {
	// XPath text match; Go quoting is valid XPath as long as the needle has
	// no embedded quotes, which holds for quarter titles and document labels.
	xpath := fmt.Sprintf(`//*[contains(normalize-space(.), %q)]`, text)
	err := c.run(ctx, chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible))
	return eris.Wrapf(err, "browser: click text %q", text)
}

func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	err := c.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	return eris.Wrapf(err, "browser: fill %q", selector)
}

func (c *Chrome) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", eris.Wrap(err, "browser: outer html")
	}
	return html, nil
}

func (c *Chrome) Location(ctx context.Context) (string, error) {
	var url string
	err := c.run(ctx, chromedp.Location(&url))
	if err != nil {
		return "", eris.Wrap(err, "browser: location")
	}
	return url, nil
}

func (c *Chrome) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var raw []*network.Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, eris.Wrap(err, "browser: get cookies")
	}

	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return cookies, nil
}

func (c *Chrome) Close() error {
	c.cancelCtx()
	c.cancelAlloc()
	return nil
}
