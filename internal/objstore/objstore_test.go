package objstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/earnings-cli/internal/config"
	"github.com/sells-group/earnings-cli/pkg/supabase"
)

func TestLocalPutAndExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewLocal(dir)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "pdfs/PCOR/2025-Q1/transcript.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "pdfs/PCOR/2025-Q1/transcript.pdf", []byte("%PDF"), "application/pdf"))

	ok, err = s.Exists(ctx, "pdfs/PCOR/2025-Q1/transcript.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(dir, "pdfs", "PCOR", "2025-Q1", "transcript.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)
}

func TestLocalPutOverwrites(t *testing.T) {
	t.Parallel()

	s := NewLocal(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.txt", []byte("one"), "text/plain"))
	require.NoError(t, s.Put(ctx, "a/b.txt", []byte("two"), "text/plain"))

	ok, err := s.Exists(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

// fakeClient implements supabase.Client in memory.
type fakeClient struct {
	objects map[string][]byte // bucket/path -> data
	listErr error
}

func (f *fakeClient) Upload(_ context.Context, bucket, path string, data []byte, _ string) error {
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[bucket+"/"+path] = data
	return nil
}

func (f *fakeClient) List(_ context.Context, bucket, prefix string) ([]supabase.ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []supabase.ObjectInfo
	for key := range f.objects {
		dir, name := splitKey(key)
		if dir == bucket+"/"+prefix {
			out = append(out, supabase.ObjectInfo{Name: name})
		}
	}
	return out, nil
}

func (f *fakeClient) Upsert(context.Context, string, string, any) error { return nil }

func TestSupabaseExists(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	s := NewSupabase(fc, "earnings")
	ctx := context.Background()

	ok, err := s.Exists(ctx, "pdfs/PCOR/2025-Q1/transcript.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "pdfs/PCOR/2025-Q1/transcript.pdf", []byte("%PDF"), "application/pdf"))

	ok, err = s.Exists(ctx, "pdfs/PCOR/2025-Q1/transcript.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	// Sibling objects under the same prefix don't match.
	ok, err = s.Exists(ctx, "pdfs/PCOR/2025-Q1/presentation.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSplitKey(t *testing.T) {
	t.Parallel()

	parent, name := splitKey("pdfs/PCOR/2025-Q1/transcript.pdf")
	assert.Equal(t, "pdfs/PCOR/2025-Q1", parent)
	assert.Equal(t, "transcript.pdf", name)

	parent, name = splitKey("flat.txt")
	assert.Equal(t, "", parent)
	assert.Equal(t, "flat.txt", name)
}

func TestNewPicksBackend(t *testing.T) {
	t.Parallel()

	s := New(config.SupabaseConfig{LocalDir: t.TempDir()})
	assert.IsType(t, &LocalStore{}, s)

	s = New(config.SupabaseConfig{URL: "https://proj.supabase.co", ServiceKey: "k", Bucket: "earnings"})
	assert.IsType(t, &SupabaseStore{}, s)
}
