// Package extract converts downloaded PDF bytes into plain text.
package extract

import (
	"context"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/earnings-cli/internal/config"
)

// Extractor extracts text content from PDF bytes. Unparseable input fails
// with an error; the caller keeps the raw bytes either way.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// New creates an Extractor based on config.
func New(cfg config.ExtractConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return NewPdfToText(cfg.PdfToTextPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("extract: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("extract: unknown provider %q", cfg.Provider)
	}
}

// normalizeText canonicalizes extracted text: NFC form, control characters
// stripped (newlines and tabs kept), surrounding whitespace trimmed.
func normalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
