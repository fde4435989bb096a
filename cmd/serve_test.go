package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/earnings-cli/internal/config"
	"github.com/sells-group/earnings-cli/internal/model"
	"github.com/sells-group/earnings-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	cfg = &config.Config{}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(newRouter(context.Background(), st))
	t.Cleanup(srv.Close)
	return srv, st
}

func TestServeHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeBackfillValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"ticker":`},
		{name: "missing ticker", body: `{"from":"2022Q1","to":"2025Q2"}`},
		{name: "bad period", body: `{"ticker":"PCOR","from":"2022","to":"2025Q2"}`},
		{name: "inverted range", body: `{"ticker":"PCOR","from":"2025Q2","to":"2022Q1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/backfill", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestServeBackfillAccepted(t *testing.T) {
	srv, st := newTestServer(t)

	resp, err := http.Post(srv.URL+"/backfill", "application/json",
		strings.NewReader(`{"ticker":"PCOR","from":"2024Q1","to":"2024Q2"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job model.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "PCOR", job.Request.Ticker)

	stored, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "PCOR", stored.Request.Ticker)
}

func TestServeJobs(t *testing.T) {
	srv, st := newTestServer(t)

	t.Run("empty list", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/jobs")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var jobs []model.Job
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
		assert.Empty(t, jobs)
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/jobs/does-not-exist")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("get by id", func(t *testing.T) {
		job, err := st.CreateJob(context.Background(), model.BackfillRequest{
			Ticker: "TEAM",
			Start:  model.FiscalPeriod{Year: 2024, Quarter: 1},
			End:    model.FiscalPeriod{Year: 2024, Quarter: 4},
		})
		require.NoError(t, err)

		resp, err := http.Get(srv.URL + "/jobs/" + job.ID)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got model.Job
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, job.ID, got.ID)
	})

	t.Run("filter by ticker", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/jobs?ticker=TEAM")
		require.NoError(t, err)
		defer resp.Body.Close()

		var jobs []model.Job
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
		require.Len(t, jobs, 1)
		assert.Equal(t, "TEAM", jobs[0].Request.Ticker)
	})
}
