package domain

import (
	"context"
	"fmt"
)

// SourceKind tags the format of a source artifact. Loaders are selected by
// kind through a registry lookup, never by reflecting on method names.
type SourceKind string

const (
	SourceKindText       SourceKind = "text"
	SourceKindPDF        SourceKind = "pdf"
	SourceKindDocx       SourceKind = "docx"
	SourceKindTranscript SourceKind = "transcript"
)

// ParseSourceKind validates a source kind value coming from callers.
func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(s) {
	case SourceKindText, SourceKindPDF, SourceKindDocx, SourceKindTranscript:
		return SourceKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown source kind %q", ErrInvalidInput, s)
}

// DocumentLoader extracts raw text from a source artifact. Format parsing is
// the loader's concern; the pipeline consumes only the text it yields.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (string, error)
}
