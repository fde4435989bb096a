package objstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// LocalStore implements Store on a directory tree. Used for development runs
// and tests; keys map directly onto relative file paths.
type LocalStore struct {
	root string
}

// NewLocal creates a LocalStore rooted at dir.
func NewLocal(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "objstore: mkdir for %s", key)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "objstore: write %s", key)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(key)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, eris.Wrapf(err, "objstore: stat %s", key)
}
