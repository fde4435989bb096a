package backfill

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earnings-cli/internal/extract"
	"github.com/sells-group/earnings-cli/internal/fetcher"
	"github.com/sells-group/earnings-cli/internal/model"
)

// Worker downloads one located document and derives its text. Both failure
// modes are local: a failed download surfaces as an error with no bytes, a
// failed extraction returns the raw bytes with no text, since the raw
// artifact has standalone value.
type Worker struct {
	fetch     fetcher.Fetcher
	extractor extract.Extractor
}

// NewWorker creates a Worker.
func NewWorker(f fetcher.Fetcher, e extract.Extractor) *Worker {
	return &Worker{fetch: f, extractor: e}
}

// FetchExtract downloads the document and attempts text extraction. A
// download error leaves the document empty; extraction is never attempted on
// absent bytes.
func (w *Worker) FetchExtract(ctx context.Context, ref model.DocumentRef) (model.ExtractedDocument, error) {
	doc := model.ExtractedDocument{Ref: ref}

	raw, err := w.fetch.Download(ctx, ref.SourceURL)
	if err != nil {
		return doc, eris.Wrapf(err, "worker: download %s %s %s", ref.Ticker, ref.Period, ref.Kind)
	}
	doc.RawBytes = raw

	text, err := w.extractor.ExtractText(ctx, raw)
	if err != nil {
		zap.L().Warn("text extraction failed, keeping raw artifact",
			zap.String("ticker", ref.Ticker),
			zap.String("period", ref.Period.String()),
			zap.String("kind", string(ref.Kind)),
			zap.Error(err),
		)
		return doc, nil
	}
	doc.Text = text
	return doc, nil
}
