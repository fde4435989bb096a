package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "service-key")
}

func TestUpload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    bool
		wantAPIErr bool
		wantStatus int
	}{
		{
			name: "happy path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/storage/v1/object/earnings/pdfs/PCOR/2025-Q1/transcript.pdf", r.URL.Path)
				assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
				assert.Equal(t, "service-key", r.Header.Get("apikey"))
				assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
				assert.Equal(t, "true", r.Header.Get("x-upsert"))

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Equal(t, []byte("%PDF-1.4"), body)

				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"Key":"earnings/pdfs/PCOR/2025-Q1/transcript.pdf"}`))
			},
		},
		{
			name: "auth error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"invalid signature"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 403,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestServer(t, tt.handler)
			err := c.Upload(context.Background(), "earnings", "pdfs/PCOR/2025-Q1/transcript.pdf", []byte("%PDF-1.4"), "application/pdf")

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantAPIErr {
					var apiErr *APIError
					require.ErrorAs(t, err, &apiErr)
					assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				}
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/list/earnings", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pdfs/PCOR/2025-Q1", req["prefix"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]ObjectInfo{
			{Name: "transcript.pdf", ID: "obj-1"},
			{Name: "press_release.pdf", ID: "obj-2"},
		})
	})

	objects, err := c.List(context.Background(), "earnings", "pdfs/PCOR/2025-Q1")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "transcript.pdf", objects[0].Name)
}

func TestListServerError(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	_, err := c.List(context.Background(), "earnings", "pdfs")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	type row struct {
		Ticker   string `json:"ticker"`
		Year     int    `json:"year"`
		Quarter  string `json:"quarter"`
		FileType string `json:"file_type"`
	}

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/earnings_files", r.URL.Path)
		assert.Equal(t, "ticker,year,quarter,file_type,file_format", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "resolution=merge-duplicates", r.Header.Get("Prefer"))

		var got row
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "PCOR", got.Ticker)
		assert.Equal(t, 2025, got.Year)

		w.WriteHeader(http.StatusCreated)
	})

	err := c.Upsert(context.Background(), "earnings_files", "ticker,year,quarter,file_type,file_format",
		row{Ticker: "PCOR", Year: 2025, Quarter: "Q1", FileType: "transcript"})
	require.NoError(t, err)
}

func TestUpsertConflictError(t *testing.T) {
	t.Parallel()

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key"}`))
	})

	err := c.Upsert(context.Background(), "earnings_files", "ticker", map[string]any{"ticker": "PCOR"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.StatusCode)
}
