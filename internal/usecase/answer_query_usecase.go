package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"local-rag/internal/domain"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// rerankCandidateMultiplier widens the retrieval pool when reranking is
// requested, so the cross-encoder sees more candidates than the final cut.
const rerankCandidateMultiplier = 4

// AnswerInput describes one end-to-end query.
type AnswerInput struct {
	Query      string
	K          int
	DocumentID string
	Rerank     bool
	// Generate selects the long-form content template instead of the
	// concise answer template.
	Generate bool
}

// Source is one context passage in the order it was fed to the model, kept
// for provenance display next to the answer.
type Source struct {
	ChunkID string
	Text    string
	Score   float32
}

// AnswerOutput carries the generated text and its sources in final order.
type AnswerOutput struct {
	Answer  string
	Sources []Source
}

// AnswerQueryUsecase composes retrieval, source fetching, optional reranking
// and generation, and owns the document deletion and reconciliation flows.
type AnswerQueryUsecase interface {
	Answer(ctx context.Context, input AnswerInput) (*AnswerOutput, error)

	// Delete fans out deletes to the vector index, the document store and
	// the paragraph store. The fan-out is not transactional; a partial
	// failure leaves the remaining stores untouched and is surfaced.
	Delete(ctx context.Context, documentID string) error

	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// Reconcile removes documents that have no paragraph rows, the orphans
	// an interrupted ingestion can leave behind. Returns how many were
	// removed.
	Reconcile(ctx context.Context) (int, error)
}

type answerQueryUsecase struct {
	retrieve      RetrieveChunksUsecase
	rerank        RerankSourcesUsecase
	promptBuilder PromptBuilder
	llmClient     domain.LLMClient
	docStore      domain.DocumentStore
	paraStore     domain.ParagraphStore
	vectorIndex   domain.VectorIndex
	maxTokens     int
	cache         *expirable.LRU[string, *AnswerOutput]
	logger        *slog.Logger
}

// AnswerQueryOption configures optional orchestrator behavior.
type AnswerQueryOption func(*answerQueryUsecase)

// WithAnswerCache enables an expiring LRU over full answers, keyed by the
// query and all flags that change the output.
func WithAnswerCache(size int, ttl time.Duration) AnswerQueryOption {
	return func(u *answerQueryUsecase) {
		if size > 0 {
			u.cache = expirable.NewLRU[string, *AnswerOutput](size, nil, ttl)
		}
	}
}

// NewAnswerQueryUsecase wires the orchestrator.
func NewAnswerQueryUsecase(
	retrieve RetrieveChunksUsecase,
	rerank RerankSourcesUsecase,
	promptBuilder PromptBuilder,
	llmClient domain.LLMClient,
	docStore domain.DocumentStore,
	paraStore domain.ParagraphStore,
	vectorIndex domain.VectorIndex,
	maxTokens int,
	logger *slog.Logger,
	opts ...AnswerQueryOption,
) AnswerQueryUsecase {
	u := &answerQueryUsecase{
		retrieve:      retrieve,
		rerank:        rerank,
		promptBuilder: promptBuilder,
		llmClient:     llmClient,
		docStore:      docStore,
		paraStore:     paraStore,
		vectorIndex:   vectorIndex,
		maxTokens:     maxTokens,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Answer runs the four stages: retrieve, fetch sources, optionally rerank
// with truncation back to k, then generate.
func (u *answerQueryUsecase) Answer(ctx context.Context, input AnswerInput) (*AnswerOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if input.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, input.K)
	}
	if input.DocumentID == "" {
		return nil, fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}

	cacheKey := fmt.Sprintf("%s|%s|%d|%t|%t",
		input.Query, input.DocumentID, input.K, input.Rerank, input.Generate)
	if u.cache != nil {
		if cached, ok := u.cache.Get(cacheKey); ok {
			u.logger.Info("answer_cache_hit", slog.String("document_id", input.DocumentID))
			return cached, nil
		}
	}

	answerID := uuid.NewString()
	start := time.Now()

	retrieveK := input.K
	if input.Rerank {
		retrieveK = input.K * rerankCandidateMultiplier
	}

	retrieved, err := u.retrieve.Retrieve(ctx, input.Query, retrieveK, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return nil, fmt.Errorf("no sources retrieved for document %s", input.DocumentID)
	}

	sources := make([]Source, len(retrieved))
	for i, hit := range retrieved {
		text, err := u.paraStore.Get(ctx, hit.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch source %s: %w", hit.ChunkID, err)
		}
		sources[i] = Source{ChunkID: hit.ChunkID, Text: text, Score: hit.Score}
	}

	if input.Rerank && u.rerank != nil {
		passages := make([]string, len(sources))
		for i, s := range sources {
			passages[i] = s.Text
		}
		order, err := u.rerank.Order(ctx, input.Query, passages)
		if err != nil {
			return nil, err
		}
		permuted := make([]Source, len(sources))
		for i, idx := range order {
			permuted[i] = sources[idx]
		}
		sources = permuted
		if len(sources) > input.K {
			sources = sources[:input.K]
		}
	}

	var contextBlock strings.Builder
	for _, s := range sources {
		contextBlock.WriteString(s.Text)
	}

	prompt, err := u.promptBuilder.Build(input.Query, contextBlock.String(), input.Generate)
	if err != nil {
		return nil, err
	}

	resp, err := u.llmClient.Generate(ctx, prompt, u.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	output := &AnswerOutput{Answer: resp.Text, Sources: sources}
	if u.cache != nil {
		u.cache.Add(cacheKey, output)
	}

	u.logger.Info("answer_completed",
		slog.String("answer_id", answerID),
		slog.String("document_id", input.DocumentID),
		slog.Int("source_count", len(sources)),
		slog.Bool("reranked", input.Rerank),
		slog.Bool("generate_mode", input.Generate),
		slog.Duration("elapsed", time.Since(start)))

	return output, nil
}

func (u *answerQueryUsecase) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}

	if err := u.vectorIndex.DeleteCollection(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	if err := u.docStore.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := u.paraStore.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete paragraphs: %w", err)
	}

	u.logger.Info("document_deleted", slog.String("document_id", documentID))
	return nil
}

func (u *answerQueryUsecase) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	docs, err := u.docStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (u *answerQueryUsecase) Reconcile(ctx context.Context) (int, error) {
	docs, err := u.docStore.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	removed := 0
	for _, doc := range docs {
		count, err := u.paraStore.CountByDocument(ctx, doc.ID)
		if err != nil {
			return removed, fmt.Errorf("failed to count paragraphs for %s: %w", doc.ID, err)
		}
		if count > 0 {
			continue
		}
		if err := u.vectorIndex.DeleteCollection(ctx, doc.ID); err != nil {
			return removed, fmt.Errorf("failed to delete vectors for orphan %s: %w", doc.ID, err)
		}
		if err := u.docStore.Delete(ctx, doc.ID); err != nil {
			return removed, fmt.Errorf("failed to delete orphan document %s: %w", doc.ID, err)
		}
		removed++
		u.logger.Info("orphan_document_removed",
			slog.String("document_id", doc.ID),
			slog.String("document_name", doc.Name))
	}
	return removed, nil
}
