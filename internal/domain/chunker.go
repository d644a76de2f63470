package domain

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

const (
	// DefaultChunkSize is the fixed-window chunk size in words.
	DefaultChunkSize = 300
	// DefaultChunkOverlap is the fixed-window overlap in words.
	DefaultChunkOverlap = 50
	// DefaultSentenceWindow is the small-to-big context window in sentences.
	DefaultSentenceWindow = 8
)

// ChunkSpan is one unit produced by a Chunker, in production order. Anchor is
// the span to embed; Context is the span stored for retrieval display.
type ChunkSpan struct {
	Anchor  string
	Context string
}

// Chunker splits raw text into an ordered sequence of chunk spans.
type Chunker interface {
	Split(text string) ([]ChunkSpan, error)
	Strategy() ChunkStrategy
}

// NewChunkerForStrategy builds a chunker with the default parameters for the
// given strategy. Unknown strategies are a caller error.
func NewChunkerForStrategy(strategy ChunkStrategy) (Chunker, error) {
	switch strategy {
	case ChunkStrategyFixedWindow:
		return NewFixedWindowChunker(DefaultChunkSize, DefaultChunkOverlap)
	case ChunkStrategySmallToBig:
		return NewSmallToBigChunker(DefaultSentenceWindow)
	}
	return nil, fmt.Errorf("%w: unknown chunk strategy %q", ErrInvalidInput, strategy)
}

type fixedWindowChunker struct {
	size    int
	overlap int
}

// NewFixedWindowChunker creates a chunker that splits text on whitespace into
// word windows of near-equal length with the given overlap. The overlap must
// be smaller than the chunk size.
func NewFixedWindowChunker(size, overlap int) (Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidInput, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidInput, overlap, size)
	}
	return &fixedWindowChunker{size: size, overlap: overlap}, nil
}

func (c *fixedWindowChunker) Strategy() ChunkStrategy {
	return ChunkStrategyFixedWindow
}

// Split derives the minimal chunk count from the effective step, then an even
// chunk size so the windows differ by at most one word instead of leaving a
// short trailing remainder. Each window extends by the overlap into the next.
func (c *fixedWindowChunker) Split(text string) ([]ChunkSpan, error) {
	words := strings.Fields(text)
	numWords := len(words)
	if numWords == 0 {
		return nil, nil
	}

	step := c.size - c.overlap
	numChunks := (numWords + step - 1) / step
	evenSize := (numWords + numChunks - 1) / numChunks

	var spans []ChunkSpan
	for i := 0; i < numWords; i += evenSize {
		end := i + evenSize + c.overlap
		if end > numWords {
			end = numWords
		}
		window := strings.Join(words[i:end], " ")
		spans = append(spans, ChunkSpan{Anchor: window, Context: window})
	}
	return spans, nil
}

type smallToBigChunker struct {
	window    int
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewSmallToBigChunker creates a chunker that anchors one sentence per chunk
// and attaches a locally centered window of surrounding sentences as context.
// The window must be a positive even number so it splits symmetrically.
func NewSmallToBigChunker(window int) (Chunker, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: sentence window must be positive, got %d", ErrInvalidInput, window)
	}
	if window%2 != 0 {
		return nil, fmt.Errorf("%w: sentence window must be even, got %d", ErrInvalidInput, window)
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}
	return &smallToBigChunker{window: window, tokenizer: tokenizer}, nil
}

func (c *smallToBigChunker) Strategy() ChunkStrategy {
	return ChunkStrategySmallToBig
}

func (c *smallToBigChunker) Split(text string) ([]ChunkSpan, error) {
	var sents []string
	for _, s := range c.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			sents = append(sents, trimmed)
		}
	}
	total := len(sents)
	if total == 0 {
		return nil, nil
	}

	half := c.window / 2
	spans := make([]ChunkSpan, 0, total)
	for x := 0; x < total; x++ {
		var lo, hi int
		switch {
		case x-half < 0:
			// Head of the document: every early sentence shares the window
			// anchored at the start.
			lo, hi = 0, c.window
		case x+half <= total:
			lo, hi = x-half, x+half
		default:
			lo, hi = total-c.window, total
		}
		if lo < 0 {
			lo = 0
		}
		if hi > total {
			hi = total
		}
		spans = append(spans, ChunkSpan{
			Anchor:  sents[x],
			Context: strings.Join(sents[lo:hi], " "),
		})
	}
	return spans, nil
}
