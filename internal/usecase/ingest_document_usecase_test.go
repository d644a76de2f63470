package usecase_test

import (
	"context"
	"strings"
	"testing"

	"local-rag/internal/domain"
	"local-rag/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIngestFixture() (*MockDocumentStore, *MockParagraphStore, *MockVectorIndex, *MockVectorEncoder, usecase.IngestDocumentUsecase) {
	docStore := new(MockDocumentStore)
	paraStore := new(MockParagraphStore)
	vectorIndex := new(MockVectorIndex)
	encoder := new(MockVectorEncoder)
	uc := usecase.NewIngestDocumentUsecase(docStore, paraStore, vectorIndex, encoder, passthroughTxManager{}, testLogger())
	return docStore, paraStore, vectorIndex, encoder, uc
}

func TestIngestDocument_NewDocument(t *testing.T) {
	docStore, paraStore, vectorIndex, encoder, uc := newIngestFixture()
	ctx := context.Background()

	// Short text: the default fixed-window parameters keep it in one chunk.
	text := "alpha beta gamma delta epsilon"

	var registered domain.Document
	docStore.On("Add", ctx, mock.AnythingOfType("domain.Document")).
		Run(func(args mock.Arguments) { registered = args.Get(1).(domain.Document) }).
		Return(nil)

	var insertedRows []domain.ParagraphRow
	paraStore.On("AddBulk", ctx, mock.Anything).
		Run(func(args mock.Arguments) { insertedRows = args.Get(1).([]domain.ParagraphRow) }).
		Return(nil)

	encoder.On("EmbedBatch", ctx, []string{text}).
		Return([][]float32{{0.1, 0.2, 0.3}}, nil)

	var upserted []domain.VectorRecord
	vectorIndex.On("Upsert", ctx, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { upserted = args.Get(2).([]domain.VectorRecord) }).
		Return(nil)

	output, err := uc.Ingest(ctx, usecase.IngestInput{
		Text:         text,
		DocumentName: "notes",
		Strategy:     domain.ChunkStrategyFixedWindow,
	})
	require.NoError(t, err)

	assert.Len(t, output.DocumentID, 15)
	assert.Equal(t, output.DocumentID, registered.ID)
	assert.Equal(t, "notes", registered.Name)
	assert.Equal(t, domain.ChunkStrategyFixedWindow, registered.ChunkStrategy)

	require.Len(t, output.Chunks, 1)
	require.Len(t, output.ChunkIDs, 1)
	assert.Len(t, output.ChunkIDs[0], 20)
	assert.Equal(t, text, output.Chunks[0].AnchorText)
	assert.Equal(t, text, output.Chunks[0].ContextText)

	require.Len(t, insertedRows, 1)
	assert.Equal(t, output.ChunkIDs[0], insertedRows[0].ChunkID)
	assert.Equal(t, output.DocumentID, insertedRows[0].DocumentID)
	assert.Equal(t, "notes", insertedRows[0].DocumentName)

	require.Len(t, upserted, 1)
	assert.Equal(t, output.ChunkIDs[0], upserted[0].ChunkID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, upserted[0].Embedding)
}

func TestIngestDocument_PositionalEmbeddingOrder(t *testing.T) {
	docStore, paraStore, vectorIndex, encoder, uc := newIngestFixture()
	ctx := context.Background()

	// Three sentences under small-to-big: one anchor per sentence, in order.
	text := "A cat sat. A dog ran. A fish swam."

	docStore.On("Add", ctx, mock.Anything).Return(nil)
	paraStore.On("AddBulk", ctx, mock.Anything).Return(nil)

	vectors := [][]float32{{1}, {2}, {3}}
	encoder.On("EmbedBatch", ctx, []string{"A cat sat.", "A dog ran.", "A fish swam."}).
		Return(vectors, nil)

	var upserted []domain.VectorRecord
	vectorIndex.On("Upsert", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { upserted = args.Get(2).([]domain.VectorRecord) }).
		Return(nil)

	output, err := uc.Ingest(ctx, usecase.IngestInput{
		Text:         text,
		DocumentName: "animals",
		Strategy:     domain.ChunkStrategySmallToBig,
	})
	require.NoError(t, err)
	require.Len(t, output.Chunks, 3)

	// embedding[i] must land on chunk_id[i].
	require.Len(t, upserted, 3)
	for i, record := range upserted {
		assert.Equal(t, output.ChunkIDs[i], record.ChunkID)
		assert.Equal(t, vectors[i], record.Embedding)
	}

	// Chunk ids are distinct.
	assert.NotEqual(t, output.ChunkIDs[0], output.ChunkIDs[1])
	assert.NotEqual(t, output.ChunkIDs[1], output.ChunkIDs[2])
}

func TestIngestDocument_AppendPath(t *testing.T) {
	t.Run("appends without re-registering the document", func(t *testing.T) {
		docStore, paraStore, vectorIndex, encoder, uc := newIngestFixture()
		ctx := context.Background()

		existing := &domain.Document{
			ID:            "doc1234567890ab",
			Name:          "notes",
			ChunkStrategy: domain.ChunkStrategyFixedWindow,
		}
		docStore.On("Get", ctx, existing.ID).Return(existing, nil)
		paraStore.On("AddBulk", ctx, mock.Anything).Return(nil)
		encoder.On("EmbedBatch", ctx, mock.Anything).Return([][]float32{{0.5}}, nil)
		vectorIndex.On("Upsert", ctx, existing.ID, mock.Anything).Return(nil)

		output, err := uc.Ingest(ctx, usecase.IngestInput{
			Text:               "more words to append",
			Strategy:           domain.ChunkStrategyFixedWindow,
			ExistingDocumentID: existing.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, output.DocumentID)
		docStore.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("rejects strategy mismatch before any write", func(t *testing.T) {
		docStore, paraStore, _, encoder, uc := newIngestFixture()
		ctx := context.Background()

		existing := &domain.Document{
			ID:            "doc1234567890ab",
			Name:          "notes",
			ChunkStrategy: domain.ChunkStrategySmallToBig,
		}
		docStore.On("Get", ctx, existing.ID).Return(existing, nil)

		_, err := uc.Ingest(ctx, usecase.IngestInput{
			Text:               "mismatched append",
			Strategy:           domain.ChunkStrategyFixedWindow,
			ExistingDocumentID: existing.ID,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		paraStore.AssertNotCalled(t, "AddBulk", mock.Anything, mock.Anything)
		encoder.AssertNotCalled(t, "EmbedBatch", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown document id", func(t *testing.T) {
		docStore, _, _, _, uc := newIngestFixture()
		ctx := context.Background()

		docStore.On("Get", ctx, "missing").Return(nil, nil)

		_, err := uc.Ingest(ctx, usecase.IngestInput{
			Text:               "text",
			Strategy:           domain.ChunkStrategyFixedWindow,
			ExistingDocumentID: "missing",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestIngestDocument_Validation(t *testing.T) {
	t.Run("rejects unknown strategy before any store call", func(t *testing.T) {
		docStore, _, _, _, uc := newIngestFixture()

		_, err := uc.Ingest(context.Background(), usecase.IngestInput{
			Text:         "text",
			DocumentName: "notes",
			Strategy:     "paragraph",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		docStore.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
		docStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("rejects empty document name", func(t *testing.T) {
		_, _, _, _, uc := newIngestFixture()

		_, err := uc.Ingest(context.Background(), usecase.IngestInput{
			Text:         "text",
			DocumentName: "   ",
			Strategy:     domain.ChunkStrategyFixedWindow,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestIngestDocument_EmptyText(t *testing.T) {
	docStore, paraStore, vectorIndex, encoder, uc := newIngestFixture()
	ctx := context.Background()

	docStore.On("Add", ctx, mock.Anything).Return(nil)

	output, err := uc.Ingest(ctx, usecase.IngestInput{
		Text:         "",
		DocumentName: "empty",
		Strategy:     domain.ChunkStrategyFixedWindow,
	})
	require.NoError(t, err)
	assert.Empty(t, output.Chunks)
	assert.Len(t, output.DocumentID, 15)

	paraStore.AssertNotCalled(t, "AddBulk", mock.Anything, mock.Anything)
	encoder.AssertNotCalled(t, "EmbedBatch", mock.Anything, mock.Anything)
	vectorIndex.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestDocument_EmbeddingCountMismatch(t *testing.T) {
	docStore, paraStore, vectorIndex, encoder, uc := newIngestFixture()
	ctx := context.Background()

	docStore.On("Add", ctx, mock.Anything).Return(nil)
	paraStore.On("AddBulk", ctx, mock.Anything).Return(nil)
	encoder.On("EmbedBatch", ctx, mock.Anything).Return([][]float32{{0.1}, {0.2}}, nil)

	longText := strings.Repeat("word ", 20)
	_, err := uc.Ingest(ctx, usecase.IngestInput{
		Text:         longText,
		DocumentName: "notes",
		Strategy:     domain.ChunkStrategyFixedWindow,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding count mismatch")
	vectorIndex.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}
