package extract

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText writes the bytes to a scratch file, runs pdftotext -layout on
// it, and returns the normalized stdout.
func (p *PdfToText) ExtractText(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", eris.New("extract: no bytes to extract")
	}

	dir, err := os.MkdirTemp("", "earnings-extract-*")
	if err != nil {
		return "", eris.Wrap(err, "extract: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", eris.Wrap(err, "extract: write temp pdf")
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "extract: pdftotext failed: %s", stderr.String())
	}

	text := normalizeText(stdout.String())
	if text == "" {
		return "", eris.New("extract: pdftotext produced no text")
	}
	return text, nil
}
