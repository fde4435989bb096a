package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/model"
)

var (
	backfillTicker string
	backfillFrom   string
	backfillTo     string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Backfill earnings documents for a single ticker",
	Long: `Walks every fiscal quarter in the range, locates press release,
presentation, and transcript PDFs on the source site, and stores each one
as a raw PDF plus extracted text. Reruns skip documents already archived.

Example:
  earnings-cli backfill --ticker PCOR --from 2022Q1 --to 2025Q2`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		req, err := parseBackfillRequest(backfillTicker, backfillFrom, backfillTo)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		job, err := st.CreateJob(ctx, req)
		if err != nil {
			return eris.Wrap(err, "create job")
		}

		report, runErr := runJob(ctx, st, job)
		if runErr != nil {
			return eris.Wrap(runErr, "backfill")
		}

		zap.L().Info("backfill done",
			zap.String("job_id", job.ID),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Bool("incomplete", report.Incomplete),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func parseBackfillRequest(ticker, from, to string) (model.BackfillRequest, error) {
	start, err := model.ParsePeriod(from)
	if err != nil {
		return model.BackfillRequest{}, eris.Wrap(err, "parse --from")
	}
	end, err := model.ParsePeriod(to)
	if err != nil {
		return model.BackfillRequest{}, eris.Wrap(err, "parse --to")
	}
	req := model.BackfillRequest{Ticker: ticker, Start: start, End: end}
	return req, req.Validate()
}

func init() {
	backfillCmd.Flags().StringVar(&backfillTicker, "ticker", "", "stock ticker symbol (required)")
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "first fiscal quarter, e.g. 2022Q1 (required)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "last fiscal quarter, e.g. 2025Q2 (required)")
	backfillCmd.Flags().StringVar(&rulesPath, "rules", "", "YAML file overriding document label and quarter patterns")
	_ = backfillCmd.MarkFlagRequired("ticker")
	_ = backfillCmd.MarkFlagRequired("from")
	_ = backfillCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(backfillCmd)
}
