package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput marks caller errors (bad arguments, unknown strategies,
// strategy mismatch on append). Checked with errors.Is at the boundaries and
// mapped to HTTP 400.
var ErrInvalidInput = errors.New("invalid input")

// ChunkStrategy selects the algorithm used to split a document.
type ChunkStrategy string

const (
	// ChunkStrategyFixedWindow splits on whitespace into evenly sized,
	// overlapping word windows. Anchor and context are the same span.
	ChunkStrategyFixedWindow ChunkStrategy = "fixed-window"
	// ChunkStrategySmallToBig indexes one sentence per chunk and stores a
	// wider sentence window as the retrievable context.
	ChunkStrategySmallToBig ChunkStrategy = "small-to-big"
)

// ParseChunkStrategy validates a strategy value coming from callers.
func ParseChunkStrategy(s string) (ChunkStrategy, error) {
	switch ChunkStrategy(s) {
	case ChunkStrategyFixedWindow:
		return ChunkStrategyFixedWindow, nil
	case ChunkStrategySmallToBig:
		return ChunkStrategySmallToBig, nil
	}
	return "", fmt.Errorf("%w: unknown chunk strategy %q", ErrInvalidInput, s)
}

// Document represents one ingested source artifact. Immutable after creation
// except via explicit deletion; appends add chunks under the same id.
type Document struct {
	ID            string
	Name          string
	ChunkStrategy ChunkStrategy
	CreatedAt     time.Time
}

// Chunk is a retrievable unit of text. AnchorText is the span whose embedding
// is indexed; ContextText is the (possibly larger) span stored for display.
// Under fixed-window the two are equal.
type Chunk struct {
	ID          string
	DocumentID  string
	AnchorText  string
	ContextText string
}
