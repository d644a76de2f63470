package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"local-rag/internal/domain"
)

// RetrievedChunk is one similarity hit, ephemeral and never persisted.
type RetrievedChunk struct {
	ChunkID string
	Score   float32
}

// RetrieveChunksUsecase runs the read path up to nearest-neighbor search.
type RetrieveChunksUsecase interface {
	// Retrieve returns at most k chunks of the given document ordered by
	// descending similarity to the query.
	Retrieve(ctx context.Context, query string, k int, documentID string) ([]RetrievedChunk, error)
}

type retrieveChunksUsecase struct {
	vectorIndex domain.VectorIndex
	encoder     domain.VectorEncoder
	logger      *slog.Logger
}

// NewRetrieveChunksUsecase wires the retriever.
func NewRetrieveChunksUsecase(
	vectorIndex domain.VectorIndex,
	encoder domain.VectorEncoder,
	logger *slog.Logger,
) RetrieveChunksUsecase {
	return &retrieveChunksUsecase{
		vectorIndex: vectorIndex,
		encoder:     encoder,
		logger:      logger,
	}
}

func (u *retrieveChunksUsecase) Retrieve(ctx context.Context, query string, k int, documentID string) ([]RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}

	start := time.Now()

	vector, err := u.encoder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := u.vectorIndex.Query(ctx, documentID, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	// The index reports ascending cosine distance, and its raw ordering is
	// not trusted: convert to similarity and sort again before returning.
	results := make([]RetrievedChunk, len(matches))
	for i, m := range matches {
		results[i] = RetrievedChunk{
			ChunkID: m.ChunkID,
			Score:   1 - m.Distance,
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	u.logger.Info("retrieval_completed",
		slog.String("document_id", documentID),
		slog.Int("k", k),
		slog.Int("hit_count", len(results)),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}
