package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/earnings-cli/internal/model"
	"github.com/sells-group/earnings-cli/internal/store"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Backfill multiple tickers from a CSV file",
	Long: `Reads ticker ranges from a CSV with columns ticker,from,to and runs
one backfill job per row. Jobs run concurrently up to
batch.max_concurrent_jobs, each with its own browser session.

Example:
  earnings-cli batch --file tickers.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reqs, err := parseBatchCSV(batchFile)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(reqs) > batchLimit {
			reqs = reqs[:batchLimit]
		}
		if len(reqs) == 0 {
			zap.L().Info("no tickers to process")
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return processBatch(ctx, st, reqs, cfg.Batch.MaxConcurrentJobs)
	},
}

// processBatch runs the requests concurrently, one runner per job. A fatal
// job error is logged but does not stop the remaining jobs.
func processBatch(ctx context.Context, st store.Store, reqs []model.BackfillRequest, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	zap.L().Info("processing batch",
		zap.Int("jobs", len(reqs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	for _, req := range reqs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			job, err := st.CreateJob(gctx, req)
			if err != nil {
				failed.Add(1)
				zap.L().Error("create job failed", zap.String("ticker", req.Ticker), zap.Error(err))
				return nil
			}

			if _, err := runJob(gctx, st, job); err != nil {
				failed.Add(1)
				zap.L().Error("batch job failed",
					zap.String("ticker", req.Ticker),
					zap.String("job_id", job.ID),
					zap.Error(err),
				)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

// parseBatchCSV reads rows of ticker,from,to. A header row is skipped when
// the first field does not parse as a ticker range.
func parseBatchCSV(path string) ([]model.BackfillRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	var reqs []model.BackfillRequest
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read %s", path)
		}
		line++

		req, err := parseBackfillRequest(
			strings.ToUpper(strings.TrimSpace(record[0])),
			strings.TrimSpace(record[1]),
			strings.TrimSpace(record[2]),
		)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, eris.Wrapf(err, "batch: line %d", line)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV file with ticker,from,to rows (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of rows to process (0 = all)")
	batchCmd.Flags().StringVar(&rulesPath, "rules", "", "YAML file overriding document label and quarter patterns")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
