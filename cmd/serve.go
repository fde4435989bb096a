package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/model"
	"github.com/sells-group/earnings-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for triggering backfill jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the job API. Backfill runs are launched asynchronously
// and polled through the jobs endpoints. jobCtx outlives individual requests
// so a running backfill is only cancelled by server shutdown.
func newRouter(jobCtx context.Context, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/backfill", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Ticker string `json:"ticker"`
			From   string `json:"from"`
			To     string `json:"to"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		bfReq, err := parseBackfillRequest(body.Ticker, body.From, body.To)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		job, err := st.CreateJob(req.Context(), bfReq)
		if err != nil {
			zap.L().Error("create job failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "create job failed"})
			return
		}

		go func() {
			if _, err := runJob(jobCtx, st, job); err != nil {
				zap.L().Error("async backfill failed",
					zap.String("job_id", job.ID),
					zap.String("ticker", bfReq.Ticker),
					zap.Error(err),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, job)
	})

	r.Get("/jobs", func(w http.ResponseWriter, req *http.Request) {
		filter := store.JobFilter{
			Ticker: req.URL.Query().Get("ticker"),
			Status: model.JobStatus(req.URL.Query().Get("status")),
		}
		jobs, err := st.ListJobs(req.Context(), filter)
		if err != nil {
			zap.L().Error("list jobs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list jobs failed"})
			return
		}
		if jobs == nil {
			jobs = []model.Job{}
		}
		writeJSON(w, http.StatusOK, jobs)
	})

	r.Get("/jobs/{id}", func(w http.ResponseWriter, req *http.Request) {
		job, err := st.GetJob(req.Context(), chi.URLParam(req, "id"))
		if errors.Is(err, store.ErrJobNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		if err != nil {
			zap.L().Error("get job failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get job failed"})
			return
		}
		writeJSON(w, http.StatusOK, job)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&rulesPath, "rules", "", "YAML file overriding document label and quarter patterns")
	rootCmd.AddCommand(serveCmd)
}
