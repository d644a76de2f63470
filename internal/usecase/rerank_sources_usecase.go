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

// RerankSourcesUsecase applies cross-encoder reranking to retrieved passages.
type RerankSourcesUsecase interface {
	// Rerank returns a full permutation of passages ordered by descending
	// relevance to the query. Nothing is dropped; truncation is the
	// caller's responsibility. Ties keep their original retrieval order.
	Rerank(ctx context.Context, query string, passages []string) ([]string, error)

	// Order returns the same permutation as indices into passages, so
	// callers can carry chunk provenance through the reordering.
	Order(ctx context.Context, query string, passages []string) ([]int, error)
}

type rerankSourcesUsecase struct {
	reranker domain.Reranker
	logger   *slog.Logger
}

// NewRerankSourcesUsecase wires the reranking stage.
func NewRerankSourcesUsecase(reranker domain.Reranker, logger *slog.Logger) RerankSourcesUsecase {
	return &rerankSourcesUsecase{reranker: reranker, logger: logger}
}

func (u *rerankSourcesUsecase) Rerank(ctx context.Context, query string, passages []string) ([]string, error) {
	order, err := u.Order(ctx, query, passages)
	if err != nil {
		return nil, err
	}
	ranked := make([]string, len(passages))
	for i, idx := range order {
		ranked[i] = passages[idx]
	}
	return ranked, nil
}

func (u *rerankSourcesUsecase) Order(ctx context.Context, query string, passages []string) ([]int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if len(passages) == 0 {
		return []int{}, nil
	}

	start := time.Now()

	candidates := make([]domain.RerankCandidate, len(passages))
	for i, passage := range passages {
		candidates[i] = domain.RerankCandidate{Index: i, Content: passage}
	}

	results, err := u.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank sources: %w", err)
	}

	scores := make([]float32, len(passages))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(passages) {
			return nil, fmt.Errorf("rerank returned invalid index %d for %d passages", r.Index, len(passages))
		}
		scores[r.Index] = r.Score
	}

	order := make([]int, len(passages))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	u.logger.Info("rerank_completed",
		slog.Int("passage_count", len(passages)),
		slog.String("model", u.reranker.ModelName()),
		slog.Duration("elapsed", time.Since(start)))

	return order, nil
}
