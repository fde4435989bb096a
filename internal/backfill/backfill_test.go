package backfill

import (
	"context"
	"net/http"
	"sync"

	"github.com/sells-group/earnings-cli/internal/model"
)

// Shared in-memory fakes for the pipeline tests.

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

type fakeRecorder struct {
	rows []FileRow
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, row FileRow) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

type fakeFetcher struct {
	bodies    map[string][]byte
	err       error
	downloads int
	cookies   []*http.Cookie
}

func (f *fakeFetcher) Download(_ context.Context, url string) ([]byte, error) {
	f.downloads++
	if f.err != nil {
		return nil, f.err
	}
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return []byte("%PDF-1.4 " + url), nil
}

func (f *fakeFetcher) SetCookies(cookies []*http.Cookie) { f.cookies = cookies }

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) ExtractText(_ context.Context, _ []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

type fakeSession struct {
	ensureErrs []error // popped per call, nil past the end
	logins     []bool  // popped per call, false past the end
	calls      int
	cookies    []*http.Cookie
	cookiesErr error
}

func (s *fakeSession) EnsureAuthenticated(context.Context) (bool, error) {
	s.calls++
	var err error
	if len(s.ensureErrs) > 0 {
		err = s.ensureErrs[0]
		s.ensureErrs = s.ensureErrs[1:]
	}
	var loggedIn bool
	if len(s.logins) > 0 {
		loggedIn = s.logins[0]
		s.logins = s.logins[1:]
	}
	return loggedIn, err
}

func (s *fakeSession) Cookies(context.Context) ([]*http.Cookie, error) {
	if s.cookiesErr != nil {
		return nil, s.cookiesErr
	}
	return s.cookies, nil
}

type fakeLocator struct {
	openErr error
	refs    map[model.FiscalPeriod][]model.DocumentRef
	errs    map[model.FiscalPeriod]error
	opened  []string
	located []model.FiscalPeriod
}

func (l *fakeLocator) OpenCompany(_ context.Context, ticker string) error {
	l.opened = append(l.opened, ticker)
	return l.openErr
}

func (l *fakeLocator) Locate(_ context.Context, _ string, p model.FiscalPeriod) ([]model.DocumentRef, error) {
	l.located = append(l.located, p)
	if err, ok := l.errs[p]; ok {
		return nil, err
	}
	return l.refs[p], nil
}

func mustPeriod(year, quarter int) model.FiscalPeriod {
	p, err := model.NewFiscalPeriod(year, quarter)
	if err != nil {
		panic(err)
	}
	return p
}

func refsFor(ticker string, p model.FiscalPeriod, kinds ...model.DocumentKind) []model.DocumentRef {
	refs := make([]model.DocumentRef, 0, len(kinds))
	for _, k := range kinds {
		refs = append(refs, model.DocumentRef{
			Ticker:    ticker,
			Period:    p,
			Kind:      k,
			SourceURL: "https://files.example.com/" + ticker + "/" + p.String() + "/" + string(k) + ".pdf",
		})
	}
	return refs
}
