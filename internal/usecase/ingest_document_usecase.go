package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"local-rag/internal/domain"

	"github.com/google/uuid"
)

// IngestInput describes one ingestion request. When ExistingDocumentID is
// set, the chunks are appended to that document instead of creating a new
// DocumentStore row.
type IngestInput struct {
	Text               string
	DocumentName       string
	Strategy           domain.ChunkStrategy
	ExistingDocumentID string
}

// IngestOutput returns the persisted chunks in production order.
type IngestOutput struct {
	DocumentID string
	Chunks     []domain.Chunk
	ChunkIDs   []string
}

// IngestDocumentUsecase runs the write path: chunk, assign ids, persist
// paragraph rows, embed anchors, and upsert vectors.
type IngestDocumentUsecase interface {
	Ingest(ctx context.Context, input IngestInput) (*IngestOutput, error)
}

type ingestDocumentUsecase struct {
	docStore    domain.DocumentStore
	paraStore   domain.ParagraphStore
	vectorIndex domain.VectorIndex
	encoder     domain.VectorEncoder
	txManager   domain.TransactionManager
	newChunker  func(domain.ChunkStrategy) (domain.Chunker, error)
	logger      *slog.Logger
}

// NewIngestDocumentUsecase wires the ingestion pipeline.
func NewIngestDocumentUsecase(
	docStore domain.DocumentStore,
	paraStore domain.ParagraphStore,
	vectorIndex domain.VectorIndex,
	encoder domain.VectorEncoder,
	txManager domain.TransactionManager,
	logger *slog.Logger,
) IngestDocumentUsecase {
	return &ingestDocumentUsecase{
		docStore:    docStore,
		paraStore:   paraStore,
		vectorIndex: vectorIndex,
		encoder:     encoder,
		txManager:   txManager,
		newChunker:  domain.NewChunkerForStrategy,
		logger:      logger,
	}
}

// Ingest writes in a fixed order: document row, paragraph rows, embeddings,
// vectors. The steps are not transactional across stores; a failure leaves
// the earlier writes in place and the error names the step that failed.
// Re-running after a partial failure is at-least-once, not exactly-once.
func (u *ingestDocumentUsecase) Ingest(ctx context.Context, input IngestInput) (*IngestOutput, error) {
	if _, err := domain.ParseChunkStrategy(string(input.Strategy)); err != nil {
		return nil, err
	}
	if input.ExistingDocumentID == "" && strings.TrimSpace(input.DocumentName) == "" {
		return nil, fmt.Errorf("%w: document name is empty", domain.ErrInvalidInput)
	}

	ingestID := uuid.NewString()
	start := time.Now()
	u.logger.Info("ingest_started",
		slog.String("ingest_id", ingestID),
		slog.String("document_name", input.DocumentName),
		slog.String("strategy", string(input.Strategy)),
		slog.Bool("append", input.ExistingDocumentID != ""))

	documentID := input.ExistingDocumentID
	documentName := input.DocumentName

	if documentID != "" {
		doc, err := u.docStore.Get(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("failed to load document for append: %w", err)
		}
		if doc == nil {
			return nil, fmt.Errorf("%w: document %s does not exist", domain.ErrInvalidInput, documentID)
		}
		if doc.ChunkStrategy != input.Strategy {
			// Mixing strategies under one document would corrupt the
			// context-window semantics of previously written chunks.
			return nil, fmt.Errorf("%w: document %s was chunked with %s, cannot append with %s",
				domain.ErrInvalidInput, documentID, doc.ChunkStrategy, input.Strategy)
		}
		documentName = doc.Name
	} else {
		documentID = domain.NewDocumentID()
		doc := domain.Document{
			ID:            documentID,
			Name:          documentName,
			ChunkStrategy: input.Strategy,
			CreatedAt:     time.Now(),
		}
		if err := u.docStore.Add(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to register document: %w", err)
		}
	}

	chunker, err := u.newChunker(input.Strategy)
	if err != nil {
		return nil, err
	}
	spans, err := chunker.Split(input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}

	// Chunk ids are assigned in production order; everything downstream
	// relies on that positional correspondence.
	chunks := make([]domain.Chunk, len(spans))
	chunkIDs := make([]string, len(spans))
	rows := make([]domain.ParagraphRow, len(spans))
	anchors := make([]string, len(spans))
	for i, span := range spans {
		id := domain.NewChunkID()
		chunks[i] = domain.Chunk{
			ID:          id,
			DocumentID:  documentID,
			AnchorText:  span.Anchor,
			ContextText: span.Context,
		}
		chunkIDs[i] = id
		rows[i] = domain.ParagraphRow{
			DocumentName: documentName,
			DocumentID:   documentID,
			ChunkID:      id,
			Context:      span.Context,
		}
		anchors[i] = span.Anchor
	}

	if len(chunks) == 0 {
		u.logger.Info("ingest_completed",
			slog.String("ingest_id", ingestID),
			slog.String("document_id", documentID),
			slog.Int("chunk_count", 0),
			slog.Duration("elapsed", time.Since(start)))
		return &IngestOutput{DocumentID: documentID}, nil
	}

	err = u.txManager.RunInTx(ctx, func(ctx context.Context) error {
		return u.paraStore.AddBulk(ctx, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store paragraphs: %w", err)
	}

	embeddings, err := u.encoder.EmbedBatch(ctx, anchors)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(anchors) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embeddings), len(anchors))
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = domain.VectorRecord{
			ChunkID:    chunk.ID,
			DocumentID: documentID,
			Embedding:  embeddings[i],
		}
	}
	if err := u.vectorIndex.Upsert(ctx, documentID, records); err != nil {
		return nil, fmt.Errorf("failed to index vectors: %w", err)
	}

	u.logger.Info("ingest_completed",
		slog.String("ingest_id", ingestID),
		slog.String("document_id", documentID),
		slog.Int("chunk_count", len(chunks)),
		slog.Duration("elapsed", time.Since(start)))

	return &IngestOutput{
		DocumentID: documentID,
		Chunks:     chunks,
		ChunkIDs:   chunkIDs,
	}, nil
}
