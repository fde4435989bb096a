// Package supabase provides a minimal client for Supabase Storage and
// PostgREST, covering the object uploads and metadata upserts the backfill
// pipeline needs.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client defines the Supabase operations used by the pipeline.
type Client interface {
	// Upload puts an object into a storage bucket, overwriting any existing
	// object at the same path.
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error

	// List returns the objects directly under a prefix in a bucket.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// Upsert inserts or merges a row into a PostgREST table, resolving
	// conflicts on the given comma-separated column list.
	Upsert(ctx context.Context, table, onConflict string, row any) error
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// APIError is returned when Supabase responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

// NewClient creates a new Supabase client for the given project URL,
// authenticating with the service role key.
func NewClient(baseURL, serviceKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) auth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
}

func (c *httpClient) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, url.PathEscape(bucket), path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("supabase: create upload request: %w", err)
	}
	c.auth(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: upload %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *httpClient) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/list/%s", c.baseURL, url.PathEscape(bucket))
	payload, err := json.Marshal(map[string]any{"prefix": prefix, "limit": 100})
	if err != nil {
		return nil, fmt.Errorf("supabase: marshal list request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("supabase: create list request: %w", err)
	}
	c.auth(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: list %s: %w", prefix, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var objects []ObjectInfo
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("supabase: decode list response: %w", err)
	}
	return objects, nil
}

func (c *httpClient) Upsert(ctx context.Context, table, onConflict string, row any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?on_conflict=%s", c.baseURL, url.PathEscape(table), url.QueryEscape(onConflict))
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("supabase: marshal upsert row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("supabase: create upsert request: %w", err)
	}
	c.auth(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: upsert into %s: %w", table, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
