package domain

import (
	"context"
)

// VectorEncoder converts text into fixed-dimension embedding vectors.
// EmbedBatch preserves input order so that embedding[i] corresponds to
// texts[i] positionally through the whole batch path.
type VectorEncoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
