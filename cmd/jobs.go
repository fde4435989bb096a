package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/earnings-cli/internal/model"
	"github.com/sells-group/earnings-cli/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect backfill job history",
	Long:  "Commands for listing, viewing, and exporting backfill jobs.",
}

// -- jobs list --

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backfill jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ticker, _ := cmd.Flags().GetString("ticker")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		jobs, err := st.ListJobs(ctx, store.JobFilter{
			Ticker: ticker,
			Status: model.JobStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "jobs list")
		}

		if len(jobs) == 0 {
			fmt.Fprintln(os.Stderr, "No jobs found.")
			return nil
		}

		formatJobsList(os.Stdout, jobs)
		return nil
	},
}

// -- jobs show --

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show full details of a job, including its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "jobs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	},
}

// -- jobs export --

var jobsExportOut string

var jobsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export job history to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		jobs, err := st.ListJobs(ctx, store.JobFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "jobs export")
		}

		if err := writeJobsXLSX(jobsExportOut, jobs); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d jobs to %s\n", len(jobs), jobsExportOut)
		return nil
	},
}

func formatJobsList(w io.Writer, jobs []model.Job) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTICKER\tRANGE\tSTATUS\tOK\tFAIL\tCREATED")
	for _, j := range jobs {
		ok, fail := "-", "-"
		if j.Report != nil {
			ok = strconv.Itoa(j.Report.Succeeded)
			fail = strconv.Itoa(j.Report.Failed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%s\t%s\t%s\t%s\n",
			j.ID,
			j.Request.Ticker,
			j.Request.Start, j.Request.End,
			j.Status,
			ok, fail,
			j.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush() //nolint:errcheck
}

// writeJobsXLSX writes one summary sheet plus a per-period detail sheet.
func writeJobsXLSX(path string, jobs []model.Job) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Jobs")
	if err != nil {
		return eris.Wrap(err, "jobs export: add sheet")
	}
	addRow(summary, "id", "ticker", "start", "end", "status", "succeeded", "failed", "incomplete", "error", "created_at")
	for _, j := range jobs {
		ok, fail, incomplete, jobErr := "", "", "", ""
		if j.Report != nil {
			ok = strconv.Itoa(j.Report.Succeeded)
			fail = strconv.Itoa(j.Report.Failed)
			incomplete = strconv.FormatBool(j.Report.Incomplete)
			jobErr = j.Report.Error
		}
		addRow(summary,
			j.ID, j.Request.Ticker,
			j.Request.Start.String(), j.Request.End.String(),
			string(j.Status), ok, fail, incomplete, jobErr,
			j.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}

	detail, err := f.AddSheet("Periods")
	if err != nil {
		return eris.Wrap(err, "jobs export: add sheet")
	}
	addRow(detail, "job_id", "ticker", "period", "press_release", "presentation", "transcript")
	for _, j := range jobs {
		if j.Report == nil {
			continue
		}
		for _, out := range j.Report.Outcomes {
			addRow(detail,
				j.ID, j.Request.Ticker, out.Period.String(),
				string(out.Kinds[model.KindPressRelease]),
				string(out.Kinds[model.KindPresentation]),
				string(out.Kinds[model.KindTranscript]),
			)
		}
	}

	return eris.Wrapf(f.Save(path), "jobs export: save %s", path)
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func init() {
	jobsListCmd.Flags().String("ticker", "", "filter by ticker")
	jobsListCmd.Flags().String("status", "", "filter by status (queued|running|complete|incomplete|failed)")
	jobsListCmd.Flags().Int("limit", 50, "max jobs to list")
	jobsExportCmd.Flags().StringVar(&jobsExportOut, "out", "jobs.xlsx", "output file path")

	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsExportCmd)
	rootCmd.AddCommand(jobsCmd)
}
