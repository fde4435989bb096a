package objstore

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/earnings-cli/pkg/supabase"
)

// SupabaseStore implements Store on a Supabase Storage bucket.
type SupabaseStore struct {
	client supabase.Client
	bucket string
}

// NewSupabase creates a SupabaseStore writing into the given bucket.
func NewSupabase(client supabase.Client, bucket string) *SupabaseStore {
	return &SupabaseStore{client: client, bucket: bucket}
}

func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.client.Upload(ctx, s.bucket, key, data, contentType); err != nil {
		return eris.Wrapf(err, "objstore: put %s", key)
	}
	return nil
}

// Exists lists the key's parent prefix and matches on the object name; the
// storage API has no cheaper existence probe.
func (s *SupabaseStore) Exists(ctx context.Context, key string) (bool, error) {
	parent, name := splitKey(key)
	objects, err := s.client.List(ctx, s.bucket, parent)
	if err != nil {
		return false, eris.Wrapf(err, "objstore: exists %s", key)
	}
	for _, obj := range objects {
		if obj.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func splitKey(key string) (parent, name string) {
	i := strings.LastIndex(key, "/")
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}
