package backfill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/earnings-cli/internal/model"
)

func TestWorkerFetchExtract(t *testing.T) {
	ref := refsFor("PCOR", mustPeriod(2025, 1), model.KindTranscript)[0]

	t.Run("success", func(t *testing.T) {
		w := NewWorker(
			&fakeFetcher{bodies: map[string][]byte{ref.SourceURL: []byte("%PDF-1.4 body")}},
			&fakeExtractor{text: "prepared remarks"},
		)

		doc, err := w.FetchExtract(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, ref, doc.Ref)
		assert.Equal(t, []byte("%PDF-1.4 body"), doc.RawBytes)
		assert.Equal(t, "prepared remarks", doc.Text)
	})

	t.Run("download failure leaves document empty", func(t *testing.T) {
		w := NewWorker(
			&fakeFetcher{err: errors.New("status 503")},
			&fakeExtractor{text: "unreachable"},
		)

		doc, err := w.FetchExtract(context.Background(), ref)
		require.Error(t, err)
		assert.False(t, doc.HasRaw())
		assert.False(t, doc.HasText())
	})

	t.Run("extraction failure keeps raw bytes", func(t *testing.T) {
		w := NewWorker(
			&fakeFetcher{},
			&fakeExtractor{err: errors.New("malformed xref table")},
		)

		doc, err := w.FetchExtract(context.Background(), ref)
		require.NoError(t, err)
		assert.True(t, doc.HasRaw())
		assert.False(t, doc.HasText())
	})
}
