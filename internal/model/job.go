package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// JobStatus represents the current state of a backfill job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusRunning    JobStatus = "running"
	JobStatusComplete   JobStatus = "complete"
	JobStatusIncomplete JobStatus = "incomplete" // aborted early, partial report retained
	JobStatusFailed     JobStatus = "failed"
)

// BackfillRequest asks for all earnings documents of one ticker over an
// inclusive period range.
type BackfillRequest struct {
	Ticker string       `json:"ticker"`
	Start  FiscalPeriod `json:"start"`
	End    FiscalPeriod `json:"end"`
}

// Validate rejects malformed requests before any session work starts.
func (r BackfillRequest) Validate() error {
	if strings.TrimSpace(r.Ticker) == "" {
		return eris.New("request: ticker is required")
	}
	if r.Start.Quarter < 1 || r.Start.Quarter > 4 || r.End.Quarter < 1 || r.End.Quarter > 4 {
		return eris.New("request: quarter out of range")
	}
	if r.Start.Compare(r.End) > 0 {
		return eris.Wrapf(ErrRange, "request %s..%s", r.Start, r.End)
	}
	return nil
}

// KindStatus is the per-document outcome recorded in a PeriodOutcome.
type KindStatus string

const (
	StatusStored        KindStatus = "stored"
	StatusAlreadyExists KindStatus = "already_existed"
	StatusNotFound      KindStatus = "not_found"
	StatusFetchFailed   KindStatus = "fetch_failed"
	StatusExtractFailed KindStatus = "extract_failed" // raw artifact stored, text missing
	StatusStoreFailed   KindStatus = "store_failed"
)

// Succeeded reports whether the status counts toward the job's success tally.
func (s KindStatus) Succeeded() bool {
	return s == StatusStored || s == StatusAlreadyExists
}

// PeriodOutcome records what happened to each document kind of one period.
type PeriodOutcome struct {
	Period FiscalPeriod                `json:"period"`
	Kinds  map[DocumentKind]KindStatus `json:"kinds"`
}

// NewPeriodOutcome starts an outcome with every kind marked not_found; stages
// overwrite entries as documents are located and processed.
func NewPeriodOutcome(p FiscalPeriod) PeriodOutcome {
	kinds := make(map[DocumentKind]KindStatus, len(Kinds()))
	for _, k := range Kinds() {
		kinds[k] = StatusNotFound
	}
	return PeriodOutcome{Period: p, Kinds: kinds}
}

// MarkAll sets every kind to the given status.
func (o PeriodOutcome) MarkAll(s KindStatus) {
	for _, k := range Kinds() {
		o.Kinds[k] = s
	}
}

// JobReport is the sole durable output of a backfill run: one outcome per
// enumerated period, in order, plus overall tallies.
type JobReport struct {
	Ticker     string          `json:"ticker"`
	Start      FiscalPeriod    `json:"start"`
	End        FiscalPeriod    `json:"end"`
	Outcomes   []PeriodOutcome `json:"outcomes"`
	Succeeded  int             `json:"succeeded_count"`
	Failed     int             `json:"failed_count"`
	Incomplete bool            `json:"incomplete"`
	Error      string          `json:"error,omitempty"`
}

// Append records one period outcome and updates the tallies.
func (r *JobReport) Append(o PeriodOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	for _, s := range o.Kinds {
		if s == StatusNotFound {
			continue
		}
		if s.Succeeded() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}

// Job is a persisted backfill run, polled through the serve layer.
type Job struct {
	ID        string          `json:"id"`
	Request   BackfillRequest `json:"request"`
	Status    JobStatus       `json:"status"`
	Report    *JobReport      `json:"report,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
