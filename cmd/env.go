package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/backfill"
	"github.com/sells-group/earnings-cli/internal/browser"
	"github.com/sells-group/earnings-cli/internal/config"
	"github.com/sells-group/earnings-cli/internal/extract"
	"github.com/sells-group/earnings-cli/internal/fetcher"
	"github.com/sells-group/earnings-cli/internal/locator"
	"github.com/sells-group/earnings-cli/internal/model"
	"github.com/sells-group/earnings-cli/internal/objstore"
	"github.com/sells-group/earnings-cli/internal/session"
	"github.com/sells-group/earnings-cli/internal/store"
	"github.com/sells-group/earnings-cli/pkg/supabase"
)

var rulesPath string

// runner bundles one browser session and the pipeline built around it. Each
// backfill job owns a runner because the browser holds per-ticker navigation
// state.
type runner struct {
	drv  browser.Driver
	orch *backfill.Orchestrator
}

// newRunner builds the full pipeline from config: headless browser, session
// manager, document locator, rate-limited fetcher, text extractor, object
// store, and metadata recorder.
func newRunner() (*runner, error) {
	if cfg.Quartr.Email == "" || cfg.Quartr.Password == "" {
		return nil, eris.New("source site credentials are required (EARNINGS_QUARTR_EMAIL, EARNINGS_QUARTR_PASSWORD)")
	}

	rules, err := loadRules()
	if err != nil {
		return nil, err
	}

	extractor, err := extractorFromConfig(cfg.Extract)
	if err != nil {
		return nil, err
	}

	drv, err := browser.NewChrome(cfg.Browser)
	if err != nil {
		return nil, eris.Wrap(err, "start browser")
	}

	sess := session.NewManager(drv,
		session.Credentials{Email: cfg.Quartr.Email, Password: cfg.Quartr.Password},
		session.Options{
			LoginURL:     cfg.Quartr.LoginURL,
			LoginTimeout: cfg.Session.LoginTimeout(),
			MaxReauths:   cfg.Session.MaxReauths,
		},
	)

	fetch := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
		RatePerSec: cfg.Fetch.RatePerSec,
	})

	objStore := objstore.New(cfg.Supabase)

	var rec backfill.Recorder
	if cfg.Supabase.URL != "" && cfg.Supabase.Table != "" {
		client := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		rec = backfill.NewSupabaseRecorder(client, cfg.Supabase.Table)
	}

	loc := locator.New(drv, rules, cfg.Quartr.BaseURL)
	worker := backfill.NewWorker(fetch, extractor)
	writer := backfill.NewWriter(objStore, rec)

	return &runner{
		drv:  drv,
		orch: backfill.NewOrchestrator(sess, loc, worker, writer, objStore, fetch),
	}, nil
}

func (r *runner) Run(ctx context.Context, req model.BackfillRequest) (model.JobReport, error) {
	return r.orch.Run(ctx, req)
}

func (r *runner) Close() {
	if err := r.drv.Close(); err != nil {
		zap.L().Warn("browser close failed", zap.Error(err))
	}
}

func loadRules() (locator.Rules, error) {
	if rulesPath == "" {
		return locator.DefaultRules(), nil
	}
	return locator.LoadRules(rulesPath)
}

func extractorFromConfig(ec config.ExtractConfig) (extract.Extractor, error) {
	e, err := extract.New(ec)
	if err != nil {
		return nil, eris.Wrap(err, "init extractor")
	}
	return e, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open job store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate job store")
	}
	return st, nil
}

// runJob executes req against a fresh runner and records the result in the
// job store. The returned error is the orchestrator's fatal error, if any.
func runJob(ctx context.Context, st store.Store, job *model.Job) (model.JobReport, error) {
	if err := st.UpdateJobStatus(ctx, job.ID, model.JobStatusRunning); err != nil {
		return model.JobReport{}, err
	}

	r, err := newRunner()
	if err != nil {
		report := model.JobReport{
			Ticker: job.Request.Ticker,
			Start:  job.Request.Start,
			End:    job.Request.End,
			Error:  err.Error(),
		}
		if serr := st.SetJobReport(ctx, job.ID, &report, model.JobStatusFailed); serr != nil {
			zap.L().Error("persist job report failed", zap.String("job_id", job.ID), zap.Error(serr))
		}
		return report, err
	}
	defer r.Close()

	report, runErr := r.Run(ctx, job.Request)

	status := model.JobStatusComplete
	switch {
	case runErr != nil:
		status = model.JobStatusFailed
	case report.Incomplete:
		status = model.JobStatusIncomplete
	}
	// The report must land even when the run was cancelled.
	if err := st.SetJobReport(context.WithoutCancel(ctx), job.ID, &report, status); err != nil {
		zap.L().Error("persist job report failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	return report, runErr
}
