// Package objstore persists raw and extracted artifacts under canonical keys.
package objstore

import (
	"context"

	"github.com/sells-group/earnings-cli/internal/config"
	"github.com/sells-group/earnings-cli/pkg/supabase"
)

// Store is the object-store capability the pipeline writes through.
type Store interface {
	// Put stores bytes under the key, overwriting an existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Exists reports whether an object is already stored under the key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates a Store from config: Supabase Storage when a project URL is
// configured, the local filesystem store otherwise.
func New(cfg config.SupabaseConfig) Store {
	if cfg.URL == "" {
		return NewLocal(cfg.LocalDir)
	}
	client := supabase.NewClient(cfg.URL, cfg.ServiceKey)
	return NewSupabase(client, cfg.Bucket)
}
