package domain

import "context"

// RerankCandidate is a passage to be scored against a query.
type RerankCandidate struct {
	// Index identifies the candidate within the request so results can be
	// mapped back positionally.
	Index int
	// Content is the passage text scored by the cross-encoder.
	Content string
}

// RerankResult carries the cross-encoder relevance score for one candidate.
type RerankResult struct {
	Index int
	Score float32
}

// Reranker scores candidates against a query with a cross-encoder model.
type Reranker interface {
	// Rerank returns one result per candidate. Result order is unspecified;
	// callers sort by score themselves.
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)

	// ModelName returns the model identifier for logging.
	ModelName() string
}
