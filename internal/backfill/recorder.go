package backfill

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/earnings-cli/pkg/supabase"
)

// FileRow is one metadata row in the earnings files table. One row is
// written per stored artifact, so a document with both a PDF and an
// extracted text file produces two rows differing only in FileFormat.
type FileRow struct {
	Ticker      string `json:"ticker"`
	Year        int    `json:"year"`
	Quarter     string `json:"quarter"`
	FileType    string `json:"file_type"`
	FileFormat  string `json:"file_format"`
	StoragePath string `json:"storage_path"`
	SourceURL   string `json:"source_url,omitempty"`
	TextContent string `json:"text_content,omitempty"`
}

// Recorder upserts artifact metadata rows.
type Recorder interface {
	Record(ctx context.Context, row FileRow) error
}

const fileConflictCols = "ticker,year,quarter,file_type,file_format"

// SupabaseRecorder writes rows to a Supabase/PostgREST table, merging on
// the natural key so reruns update rather than duplicate.
type SupabaseRecorder struct {
	client supabase.Client
	table  string
}

func NewSupabaseRecorder(client supabase.Client, table string) *SupabaseRecorder {
	return &SupabaseRecorder{client: client, table: table}
}

func (r *SupabaseRecorder) Record(ctx context.Context, row FileRow) error {
	if err := r.client.Upsert(ctx, r.table, fileConflictCols, row); err != nil {
		return eris.Wrapf(err, "recorder: upsert %s %d-%s %s/%s",
			row.Ticker, row.Year, row.Quarter, row.FileType, row.FileFormat)
	}
	return nil
}
