package backfill

import (
	"context"
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/fetcher"
	"github.com/sells-group/earnings-cli/internal/locator"
	"github.com/sells-group/earnings-cli/internal/model"
	"github.com/sells-group/earnings-cli/internal/objstore"
)

// Collaborator seams, narrowed to the calls the orchestrator makes so tests
// can swap in fakes without a browser.
type sessionManager interface {
	EnsureAuthenticated(ctx context.Context) (bool, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

type documentLocator interface {
	OpenCompany(ctx context.Context, ticker string) error
	Locate(ctx context.Context, ticker string, period model.FiscalPeriod) ([]model.DocumentRef, error)
}

type fetchExtractor interface {
	FetchExtract(ctx context.Context, ref model.DocumentRef) (model.ExtractedDocument, error)
}

type storageWriter interface {
	Write(ctx context.Context, doc model.ExtractedDocument) (WriteStatus, error)
}

// Orchestrator drives one backfill run end to end: authenticate, open the
// company page once, then walk the periods oldest first, locating, fetching,
// and storing each document kind free of duplicates.
type Orchestrator struct {
	session sessionManager
	locator documentLocator
	worker  fetchExtractor
	writer  storageWriter
	store   objstore.Store
	fetch   fetcher.Fetcher
}

func NewOrchestrator(
	sess sessionManager,
	loc documentLocator,
	worker fetchExtractor,
	writer storageWriter,
	store objstore.Store,
	fetch fetcher.Fetcher,
) *Orchestrator {
	return &Orchestrator{
		session: sess,
		locator: loc,
		worker:  worker,
		writer:  writer,
		store:   store,
		fetch:   fetch,
	}
}

// Run executes the backfill described by req and always returns a report,
// partial when the run aborted early. The error is non-nil only when the run
// could not start at all: an invalid request or a failed initial login.
// Mid-run failures, including an exhausted re-login budget, surface through
// the report's Incomplete flag and Error field instead so the caller keeps
// every outcome gathered so far.
func (o *Orchestrator) Run(ctx context.Context, req model.BackfillRequest) (model.JobReport, error) {
	report := model.JobReport{Ticker: req.Ticker, Start: req.Start, End: req.End}

	if err := req.Validate(); err != nil {
		report.Error = err.Error()
		return report, eris.Wrap(err, "backfill: invalid request")
	}

	periods, err := model.Enumerate(req.Start, req.End)
	if err != nil {
		report.Error = err.Error()
		return report, eris.Wrap(err, "backfill: invalid request")
	}

	log := zap.L().With(
		zap.String("ticker", req.Ticker),
		zap.String("start", req.Start.String()),
		zap.String("end", req.End.String()),
	)
	log.Info("backfill starting", zap.Int("periods", len(periods)))

	if _, err := o.authenticate(ctx); err != nil {
		report.Error = err.Error()
		return report, eris.Wrap(err, "backfill: initial login")
	}

	if err := o.locator.OpenCompany(ctx, req.Ticker); err != nil {
		// Without the company page every period is unreachable, but the
		// run itself happened, so report rather than error out.
		log.Error("open company failed", zap.Error(err))
		report.Error = err.Error()
		report.Incomplete = true
		for _, p := range periods {
			out := model.NewPeriodOutcome(p)
			out.MarkAll(model.StatusFetchFailed)
			report.Append(out)
		}
		return report, nil
	}

	for i, p := range periods {
		if err := ctx.Err(); err != nil {
			log.Warn("backfill cancelled", zap.String("period", p.String()))
			report.Error = err.Error()
			report.Incomplete = true
			return report, nil
		}

		reauthed, err := o.authenticate(ctx)
		if err != nil {
			log.Error("session unrecoverable, aborting run",
				zap.String("period", p.String()), zap.Error(err))
			report.Error = err.Error()
			report.Incomplete = true
			return report, nil
		}
		if reauthed {
			// A re-login leaves the browser on the post-login page, so
			// the company page must be reopened before locating anything.
			if err := o.locator.OpenCompany(ctx, req.Ticker); err != nil {
				log.Error("reopen company after re-login failed", zap.Error(err))
				report.Error = err.Error()
				report.Incomplete = true
				for _, rest := range periods[i:] {
					out := model.NewPeriodOutcome(rest)
					out.MarkAll(model.StatusFetchFailed)
					report.Append(out)
				}
				return report, nil
			}
		}

		report.Append(o.processPeriod(ctx, log, req.Ticker, p))
	}

	log.Info("backfill finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// authenticate ensures a live session and pushes its cookies onto the
// download client so artifact fetches ride the same login. It reports whether
// a login happened, which displaces the browser from the company page.
func (o *Orchestrator) authenticate(ctx context.Context) (bool, error) {
	loggedIn, err := o.session.EnsureAuthenticated(ctx)
	if err != nil {
		return false, err
	}
	cookies, err := o.session.Cookies(ctx)
	if err != nil {
		return false, err
	}
	o.fetch.SetCookies(cookies)
	return loggedIn, nil
}

// processPeriod resolves and persists all document kinds for one fiscal
// period. Kinds already fully stored are settled from the object store alone,
// so a rerun over a completed range touches the site only to list the quarter.
func (o *Orchestrator) processPeriod(ctx context.Context, log *zap.Logger, ticker string, p model.FiscalPeriod) model.PeriodOutcome {
	out := model.NewPeriodOutcome(p)

	pending := make(map[model.DocumentKind]bool, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		status, settled := o.checkExisting(ctx, ticker, p, kind)
		if settled {
			out.Kinds[kind] = status
			continue
		}
		pending[kind] = true
	}
	if len(pending) == 0 {
		log.Debug("period already stored", zap.String("period", p.String()))
		return out
	}

	refs, err := o.locator.Locate(ctx, ticker, p)
	if err != nil {
		var locErr *locator.LocatorError
		if errors.As(err, &locErr) {
			log.Warn("document location failed",
				zap.String("period", p.String()), zap.Error(err))
		} else {
			log.Error("quarter page navigation failed",
				zap.String("period", p.String()), zap.Error(err))
		}
		for kind := range pending {
			out.Kinds[kind] = model.StatusFetchFailed
		}
		return out
	}

	for _, ref := range refs {
		if !pending[ref.Kind] {
			continue
		}
		out.Kinds[ref.Kind] = o.processDocument(ctx, log, ref)
	}
	// Kinds with no link on the quarter page keep their not_found default.
	return out
}

// checkExisting settles a kind from the object store when possible. A raw
// artifact with its text counterpart is done; raw without text still needs a
// fetch so extraction can be retried. Store probe errors are treated as
// missing and resolved by the write path.
func (o *Orchestrator) checkExisting(ctx context.Context, ticker string, p model.FiscalPeriod, kind model.DocumentKind) (model.KindStatus, bool) {
	rawOK, err := o.store.Exists(ctx, model.RawKey(ticker, p, kind))
	if err != nil || !rawOK {
		return "", false
	}
	textOK, err := o.store.Exists(ctx, model.TextKey(ticker, p, kind))
	if err != nil || !textOK {
		return "", false
	}
	return model.StatusAlreadyExists, true
}

// processDocument runs one located document through fetch, extract, and
// write, mapping the result onto the outcome vocabulary.
func (o *Orchestrator) processDocument(ctx context.Context, log *zap.Logger, ref model.DocumentRef) model.KindStatus {
	doc, err := o.worker.FetchExtract(ctx, ref)
	if err != nil {
		log.Warn("document fetch failed",
			zap.String("period", ref.Period.String()),
			zap.String("kind", string(ref.Kind)),
			zap.Error(err),
		)
		return model.StatusFetchFailed
	}

	status, err := o.writer.Write(ctx, doc)
	if err != nil {
		log.Error("document store failed",
			zap.String("period", ref.Period.String()),
			zap.String("kind", string(ref.Kind)),
			zap.Error(err),
		)
		return model.StatusStoreFailed
	}

	switch status {
	case WriteStored:
		return model.StatusStored
	case WriteAlreadyExists:
		return model.StatusAlreadyExists
	case WriteRawOnly:
		return model.StatusExtractFailed
	default:
		return model.StatusStoreFailed
	}
}
