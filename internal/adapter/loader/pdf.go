package loader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"local-rag/internal/domain"

	"github.com/ledongthuc/pdf"
)

type pdfLoader struct{}

// NewPDFLoader extracts plain text from a PDF file.
func NewPDFLoader() domain.DocumentLoader {
	return &pdfLoader{}
}

func (l *pdfLoader) Load(_ context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	// Layout newlines are not sentence boundaries in PDFs.
	return strings.ReplaceAll(sb.String(), "\n", " "), nil
}
