package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    DocumentKind
		wantErr bool
	}{
		{in: "press_release", want: KindPressRelease},
		{in: "Presentation", want: KindPresentation},
		{in: "TRANSCRIPT", want: KindTranscript},
		{in: "10-K", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorageKeys(t *testing.T) {
	t.Parallel()

	p := FiscalPeriod{Year: 2025, Quarter: 1}

	assert.Equal(t, "pdfs/PCOR/2025-Q1/transcript.pdf", RawKey("pcor", p, KindTranscript))
	assert.Equal(t, "pdfs/PCOR/2025-Q1/transcript.txt", TextKey("PCOR", p, KindTranscript))

	// Same inputs always map to the same key, regardless of ticker casing.
	assert.Equal(t, RawKey("Pcor", p, KindPressRelease), RawKey("PCOR", p, KindPressRelease))
}

func TestExtractedDocumentFlags(t *testing.T) {
	t.Parallel()

	var d ExtractedDocument
	assert.False(t, d.HasRaw())
	assert.False(t, d.HasText())

	d.RawBytes = []byte("%PDF-1.4")
	assert.True(t, d.HasRaw())

	d.Text = "hello"
	assert.True(t, d.HasText())
}
