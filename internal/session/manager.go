// Package session owns the one authenticated browsing session of a backfill
// job: login, expiry detection, and bounded re-authentication.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/browser"
)

// State is the session lifecycle state.
type State int

const (
	LoggedOut State = iota
	LoggingIn
	Authenticated
	Expired
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case LoggingIn:
		return "logging_in"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// AuthError marks a failure that is fatal to the whole job: credentials are
// never retried per period.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("session: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ErrReauthBudget is returned when the automatic re-authentication budget for
// a job is exhausted. Fatal, like AuthError.
var ErrReauthBudget = eris.New("session: re-authentication budget exhausted")

// Credentials are the two opaque secrets supplied at job start. They must
// never be logged or surfaced in a job report.
type Credentials struct {
	Email    string
	Password string
}

// Options configures the session manager.
type Options struct {
	LoginURL     string
	LoginTimeout time.Duration
	MaxReauths   int
}

// Login page selectors and the post-login readiness signal, matching the
// source site's rendered markup.
const (
	emailSelector    = `input[placeholder="Email"]`
	passwordSelector = `input[placeholder="Password"]`
	loginButtonText  = "Log in"
	searchSelector   = `input[placeholder="Search"]`
)

// Manager drives one browser session through the login state machine.
// It is not safe for concurrent use; the session is a serially-reusable
// resource by design.
type Manager struct {
	drv     browser.Driver
	creds   Credentials
	opts    Options
	state   State
	reauths int
}

// NewManager creates a Manager in the LoggedOut state.
func NewManager(drv browser.Driver, creds Credentials, opts Options) *Manager {
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = 45 * time.Second
	}
	if opts.MaxReauths <= 0 {
		opts.MaxReauths = 3
	}
	return &Manager{drv: drv, creds: creds, opts: opts}
}

// State returns the current session state.
func (m *Manager) State() State { return m.state }

// Login performs the initial authentication. A failure is fatal to the job.
func (m *Manager) Login(ctx context.Context) error {
	m.state = LoggingIn
	if err := m.login(ctx); err != nil {
		m.state = LoggedOut
		return &AuthError{Err: err}
	}
	m.state = Authenticated
	zap.L().Info("session authenticated")
	return nil
}

func (m *Manager) login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.LoginTimeout)
	defer cancel()

	if err := m.drv.Navigate(ctx, m.opts.LoginURL); err != nil {
		return eris.Wrap(err, "open login page")
	}
	if err := m.drv.Fill(ctx, emailSelector, m.creds.Email); err != nil {
		return eris.Wrap(err, "fill email")
	}
	if err := m.drv.Fill(ctx, passwordSelector, m.creds.Password); err != nil {
		return eris.Wrap(err, "fill password")
	}
	if err := m.drv.ClickText(ctx, loginButtonText); err != nil {
		return eris.Wrap(err, "submit login")
	}
	if err := m.drv.WaitVisible(ctx, searchSelector); err != nil {
		return eris.Wrap(err, "wait for post-login page")
	}

	loc, err := m.drv.Location(ctx)
	if err != nil {
		return eris.Wrap(err, "read location")
	}
	if isLoginPage(loc) {
		return eris.New("still on login page, credentials rejected")
	}
	return nil
}

// EnsureAuthenticated verifies the session is usable, re-authenticating if an
// expiry signal is detected. It reports whether a login was performed, which
// leaves the browser on the post-login page rather than wherever the caller
// had navigated it. Every error it returns is fatal to the job.
func (m *Manager) EnsureAuthenticated(ctx context.Context) (bool, error) {
	switch m.state {
	case LoggedOut:
		return true, m.Login(ctx)
	case Authenticated:
		expired, err := m.expired(ctx)
		if err != nil {
			return false, &AuthError{Err: err}
		}
		if !expired {
			return false, nil
		}
		m.state = Expired
		fallthrough
	case Expired:
		return true, m.relogin(ctx)
	default:
		return false, &AuthError{Err: eris.Errorf("illegal session state %s", m.state)}
	}
}

// expired detects the source site's expiry signal: a redirect back to the
// login page.
func (m *Manager) expired(ctx context.Context) (bool, error) {
	loc, err := m.drv.Location(ctx)
	if err != nil {
		return false, eris.Wrap(err, "probe session")
	}
	return isLoginPage(loc), nil
}

func (m *Manager) relogin(ctx context.Context) error {
	m.reauths++
	if m.reauths > m.opts.MaxReauths {
		return eris.Wrapf(ErrReauthBudget, "after %d attempts", m.reauths-1)
	}
	zap.L().Warn("session expired, re-authenticating",
		zap.Int("attempt", m.reauths),
		zap.Int("budget", m.opts.MaxReauths),
	)

	m.state = LoggingIn
	if err := m.login(ctx); err != nil {
		m.state = Expired
		return &AuthError{Err: err}
	}
	m.state = Authenticated
	return nil
}

// Cookies exports the authenticated cookie jar for out-of-band downloads.
func (m *Manager) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	if m.state != Authenticated {
		return nil, eris.Errorf("session: cookies requested while %s", m.state)
	}
	return m.drv.Cookies(ctx)
}

func isLoginPage(loc string) bool {
	return strings.Contains(loc, "/login")
}
