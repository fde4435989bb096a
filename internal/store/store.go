// Package store persists backfill jobs so asynchronous runs submitted over
// HTTP can be polled and audited after the fact.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/earnings-cli/internal/config"
	"github.com/sells-group/earnings-cli/internal/model"
)

// ErrJobNotFound is returned when a job ID resolves to nothing.
var ErrJobNotFound = eris.New("store: job not found")

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Ticker string          `json:"ticker,omitempty"`
	Status model.JobStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for backfill jobs.
type Store interface {
	CreateJob(ctx context.Context, req model.BackfillRequest) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error
	// SetJobReport attaches the finished report and the terminal status in
	// one write.
	SetJobReport(ctx context.Context, jobID string, report *model.JobReport, status model.JobStatus) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)

	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store backend selected by cfg.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite", "":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
