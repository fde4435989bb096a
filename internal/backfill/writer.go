package backfill

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/model"
	"github.com/sells-group/earnings-cli/internal/objstore"
)

// WriteStatus is the outcome of persisting one extracted document.
type WriteStatus string

const (
	WriteStored        WriteStatus = "stored"
	WriteAlreadyExists WriteStatus = "already_existed"
	WriteRawOnly       WriteStatus = "raw_only" // raw persisted, no text available
	WriteFailed        WriteStatus = "failed"
)

// Writer persists raw and text artifacts under their canonical keys.
// Writes are idempotent: a raw object already in the store is never
// re-uploaded, while the text artifact is written independently so a later
// run can backfill text for a period whose extraction previously failed.
type Writer struct {
	store objstore.Store
	rec   Recorder
}

// NewWriter creates a Writer. rec may be nil when no metadata table is
// configured.
func NewWriter(store objstore.Store, rec Recorder) *Writer {
	return &Writer{store: store, rec: rec}
}

// Write persists the document's artifacts. Store-layer errors are contained:
// they come back as WriteFailed with the cause, never as a panic up the
// pipeline.
func (w *Writer) Write(ctx context.Context, doc model.ExtractedDocument) (WriteStatus, error) {
	if !doc.HasRaw() {
		return WriteFailed, eris.New("writer: document has no raw bytes")
	}

	ref := doc.Ref
	rawKey := model.RawKey(ref.Ticker, ref.Period, ref.Kind)

	rawExisted, err := w.store.Exists(ctx, rawKey)
	if err != nil {
		return WriteFailed, eris.Wrapf(err, "writer: check %s", rawKey)
	}
	if !rawExisted {
		if err := w.store.Put(ctx, rawKey, doc.RawBytes, "application/pdf"); err != nil {
			return WriteFailed, eris.Wrapf(err, "writer: put %s", rawKey)
		}
		w.record(ctx, ref, "pdf", rawKey, "")
	}

	if !doc.HasText() {
		return WriteRawOnly, nil
	}

	textKey := model.TextKey(ref.Ticker, ref.Period, ref.Kind)
	if err := w.store.Put(ctx, textKey, []byte(doc.Text), "text/plain; charset=utf-8"); err != nil {
		return WriteFailed, eris.Wrapf(err, "writer: put %s", textKey)
	}
	w.record(ctx, ref, "text", textKey, doc.Text)

	if rawExisted {
		return WriteAlreadyExists, nil
	}
	return WriteStored, nil
}

// record upserts the metadata row, best-effort.
func (w *Writer) record(ctx context.Context, ref model.DocumentRef, format, key, text string) {
	if w.rec == nil {
		return
	}
	row := FileRow{
		Ticker:      ref.Ticker,
		Year:        ref.Period.Year,
		Quarter:     ref.Period.QuarterString(),
		FileType:    string(ref.Kind),
		FileFormat:  format,
		StoragePath: key,
		SourceURL:   ref.SourceURL,
		TextContent: text,
	}
	if err := w.rec.Record(ctx, row); err != nil {
		zap.L().Warn("metadata upsert failed",
			zap.String("ticker", ref.Ticker),
			zap.String("period", ref.Period.String()),
			zap.String("kind", string(ref.Kind)),
			zap.String("format", format),
			zap.Error(err),
		)
	}
}
