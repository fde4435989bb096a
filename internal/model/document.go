package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// DocumentKind is the closed set of earnings document types handled by the
// pipeline. Every kind flows through the same fetch-extract-store path.
type DocumentKind string

const (
	KindPressRelease DocumentKind = "press_release"
	KindPresentation DocumentKind = "presentation"
	KindTranscript   DocumentKind = "transcript"
)

// Kinds lists all document kinds in stable order.
func Kinds() []DocumentKind {
	return []DocumentKind{KindPressRelease, KindPresentation, KindTranscript}
}

// ParseKind converts a string into a DocumentKind.
func ParseKind(s string) (DocumentKind, error) {
	switch DocumentKind(strings.ToLower(s)) {
	case KindPressRelease, KindPresentation, KindTranscript:
		return DocumentKind(strings.ToLower(s)), nil
	default:
		return "", eris.Errorf("model: unknown document kind %q", s)
	}
}

// DocumentRef points at one downloadable document located on the source site.
type DocumentRef struct {
	Ticker    string       `json:"ticker"`
	Period    FiscalPeriod `json:"period"`
	Kind      DocumentKind `json:"kind"`
	SourceURL string       `json:"source_url"`
}

// ExtractedDocument is a fetched document plus its derived text. Text is empty
// when extraction failed; RawBytes nil when the download itself failed.
type ExtractedDocument struct {
	Ref      DocumentRef
	RawBytes []byte
	Text     string
}

// HasRaw reports whether the download produced bytes.
func (d ExtractedDocument) HasRaw() bool { return len(d.RawBytes) > 0 }

// HasText reports whether extraction produced text.
func (d ExtractedDocument) HasText() bool { return d.Text != "" }

// RawKey returns the deterministic object key for the raw PDF artifact:
// pdfs/{TICKER}/{year}-{Qn}/{kind}.pdf. The mapping is pure, so repeated
// backfill runs address the same objects.
func RawKey(ticker string, p FiscalPeriod, kind DocumentKind) string {
	return artifactKey(ticker, p, kind, "pdf")
}

// TextKey returns the object key for the extracted-text artifact.
func TextKey(ticker string, p FiscalPeriod, kind DocumentKind) string {
	return artifactKey(ticker, p, kind, "txt")
}

func artifactKey(ticker string, p FiscalPeriod, kind DocumentKind, ext string) string {
	return fmt.Sprintf("pdfs/%s/%d-%s/%s.%s", strings.ToUpper(ticker), p.Year, p.QuarterString(), kind, ext)
}
