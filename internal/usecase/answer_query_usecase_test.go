package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"local-rag/internal/domain"
	"local-rag/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type answerFixture struct {
	retriever   *MockRetriever
	reranker    *MockRerankSources
	llm         *MockLLMClient
	docStore    *MockDocumentStore
	paraStore   *MockParagraphStore
	vectorIndex *MockVectorIndex
	uc          usecase.AnswerQueryUsecase
}

func newAnswerFixture(opts ...usecase.AnswerQueryOption) *answerFixture {
	f := &answerFixture{
		retriever:   new(MockRetriever),
		reranker:    new(MockRerankSources),
		llm:         new(MockLLMClient),
		docStore:    new(MockDocumentStore),
		paraStore:   new(MockParagraphStore),
		vectorIndex: new(MockVectorIndex),
	}
	f.uc = usecase.NewAnswerQueryUsecase(
		f.retriever,
		f.reranker,
		usecase.NewPromptBuilder(),
		f.llm,
		f.docStore,
		f.paraStore,
		f.vectorIndex,
		512,
		testLogger(),
		opts...,
	)
	return f
}

func TestAnswerQuery_Answer(t *testing.T) {
	t.Run("runs retrieve, fetch and generate without reranking", func(t *testing.T) {
		f := newAnswerFixture()
		ctx := context.Background()

		f.retriever.On("Retrieve", ctx, "what is a cat", 2, "doc1").Return([]usecase.RetrievedChunk{
			{ChunkID: "c1", Score: 0.9},
			{ChunkID: "c2", Score: 0.8},
		}, nil)
		f.paraStore.On("Get", ctx, "c1").Return("Cats are small. ", nil)
		f.paraStore.On("Get", ctx, "c2").Return("Cats sleep a lot.", nil)

		var prompt string
		f.llm.On("Generate", ctx, mock.AnythingOfType("string"), 512).
			Run(func(args mock.Arguments) { prompt = args.String(1) }).
			Return(&domain.LLMResponse{Text: "Cats are small felines.", Done: true}, nil)

		output, err := f.uc.Answer(ctx, usecase.AnswerInput{
			Query:      "what is a cat",
			K:          2,
			DocumentID: "doc1",
		})
		require.NoError(t, err)

		assert.Equal(t, "Cats are small felines.", output.Answer)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, "c1", output.Sources[0].ChunkID)
		assert.Equal(t, "c2", output.Sources[1].ChunkID)

		// Context is the concatenated passages in retrieval order.
		assert.Contains(t, prompt, "Cats are small. Cats sleep a lot.")
		assert.Contains(t, prompt, "<query>\nwhat is a cat\n</query>")

		f.reranker.AssertNotCalled(t, "Order", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rerank widens retrieval and truncates back to k", func(t *testing.T) {
		f := newAnswerFixture()
		ctx := context.Background()

		// k=2 with reranking retrieves 8 candidates.
		retrieved := make([]usecase.RetrievedChunk, 8)
		for i := range retrieved {
			retrieved[i] = usecase.RetrievedChunk{
				ChunkID: "c" + string(rune('0'+i)),
				Score:   float32(8-i) / 10,
			}
		}
		f.retriever.On("Retrieve", ctx, "q", 8, "doc1").Return(retrieved, nil)

		for i := range retrieved {
			f.paraStore.On("Get", ctx, retrieved[i].ChunkID).
				Return("passage "+string(rune('0'+i)), nil)
		}

		// The reranker promotes the last two candidates.
		f.reranker.On("Order", ctx, "q", mock.Anything).
			Return([]int{7, 6, 0, 1, 2, 3, 4, 5}, nil)

		f.llm.On("Generate", ctx, mock.Anything, 512).
			Return(&domain.LLMResponse{Text: "answer", Done: true}, nil)

		output, err := f.uc.Answer(ctx, usecase.AnswerInput{
			Query:      "q",
			K:          2,
			DocumentID: "doc1",
			Rerank:     true,
		})
		require.NoError(t, err)

		require.Len(t, output.Sources, 2)
		assert.Equal(t, "c7", output.Sources[0].ChunkID)
		assert.Equal(t, "c6", output.Sources[1].ChunkID)
	})

	t.Run("generate mode switches the prompt template", func(t *testing.T) {
		f := newAnswerFixture()
		ctx := context.Background()

		f.retriever.On("Retrieve", ctx, "write about cats", 1, "doc1").Return([]usecase.RetrievedChunk{
			{ChunkID: "c1", Score: 0.9},
		}, nil)
		f.paraStore.On("Get", ctx, "c1").Return("Cats are small.", nil)

		var prompt string
		f.llm.On("Generate", ctx, mock.Anything, 512).
			Run(func(args mock.Arguments) { prompt = args.String(1) }).
			Return(&domain.LLMResponse{Text: "essay", Done: true}, nil)

		_, err := f.uc.Answer(ctx, usecase.AnswerInput{
			Query:      "write about cats",
			K:          1,
			DocumentID: "doc1",
			Generate:   true,
		})
		require.NoError(t, err)
		assert.Contains(t, prompt, "long-form piece")
		assert.NotContains(t, prompt, "concisely")
	})

	t.Run("empty retrieval is an error, not an empty-context generation", func(t *testing.T) {
		f := newAnswerFixture()
		ctx := context.Background()

		f.retriever.On("Retrieve", ctx, "q", 3, "doc1").Return([]usecase.RetrievedChunk{}, nil)

		_, err := f.uc.Answer(ctx, usecase.AnswerInput{Query: "q", K: 3, DocumentID: "doc1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no sources retrieved")
		f.llm.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects bad input before retrieval", func(t *testing.T) {
		f := newAnswerFixture()
		ctx := context.Background()

		_, err := f.uc.Answer(ctx, usecase.AnswerInput{Query: " ", K: 3, DocumentID: "doc1"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.uc.Answer(ctx, usecase.AnswerInput{Query: "q", K: 0, DocumentID: "doc1"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = f.uc.Answer(ctx, usecase.AnswerInput{Query: "q", K: 3})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		f.retriever.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache serves repeated queries without a second pipeline run", func(t *testing.T) {
		f := newAnswerFixture(usecase.WithAnswerCache(16, time.Minute))
		ctx := context.Background()

		f.retriever.On("Retrieve", ctx, "q", 1, "doc1").Return([]usecase.RetrievedChunk{
			{ChunkID: "c1", Score: 0.9},
		}, nil).Once()
		f.paraStore.On("Get", ctx, "c1").Return("text", nil).Once()
		f.llm.On("Generate", ctx, mock.Anything, 512).
			Return(&domain.LLMResponse{Text: "answer", Done: true}, nil).Once()

		input := usecase.AnswerInput{Query: "q", K: 1, DocumentID: "doc1"}

		first, err := f.uc.Answer(ctx, input)
		require.NoError(t, err)

		second, err := f.uc.Answer(ctx, input)
		require.NoError(t, err)

		assert.Equal(t, first.Answer, second.Answer)
		f.llm.AssertNumberOfCalls(t, "Generate", 1)
	})
}

func TestAnswerQuery_Delete(t *testing.T) {
	t.Run("fans out across vectors, document and paragraphs", func(t *testing.T) {
		f := newAnswerFixture()
		ctx := context.Background()

		var order []string
		f.vectorIndex.On("DeleteCollection", ctx, "doc1").
			Run(func(mock.Arguments) { order = append(order, "vectors") }).Return(nil)
		f.docStore.On("Delete", ctx, "doc1").
			Run(func(mock.Arguments) { order = append(order, "document") }).Return(nil)
		f.paraStore.On("DeleteByDocument", ctx, "doc1").
			Run(func(mock.Arguments) { order = append(order, "paragraphs") }).Return(nil)

		err := f.uc.Delete(ctx, "doc1")
		require.NoError(t, err)
		assert.Equal(t, []string{"vectors", "document", "paragraphs"}, order)
	})

	t.Run("deleting an unknown id succeeds as a no-op", func(t *testing.T) {
		f := newAnswerFixture()
		ctx := context.Background()

		f.vectorIndex.On("DeleteCollection", ctx, "missing").Return(nil)
		f.docStore.On("Delete", ctx, "missing").Return(nil)
		f.paraStore.On("DeleteByDocument", ctx, "missing").Return(nil)

		assert.NoError(t, f.uc.Delete(ctx, "missing"))
	})

	t.Run("rejects empty document id", func(t *testing.T) {
		f := newAnswerFixture()
		err := f.uc.Delete(context.Background(), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestAnswerQuery_Reconcile(t *testing.T) {
	f := newAnswerFixture()
	ctx := context.Background()

	f.docStore.On("List", ctx).Return([]domain.Document{
		{ID: "healthy", Name: "kept"},
		{ID: "orphan", Name: "interrupted"},
	}, nil)
	f.paraStore.On("CountByDocument", ctx, "healthy").Return(12, nil)
	f.paraStore.On("CountByDocument", ctx, "orphan").Return(0, nil)
	f.vectorIndex.On("DeleteCollection", ctx, "orphan").Return(nil)
	f.docStore.On("Delete", ctx, "orphan").Return(nil)

	removed, err := f.uc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	f.docStore.AssertNotCalled(t, "Delete", ctx, "healthy")
	f.vectorIndex.AssertNotCalled(t, "DeleteCollection", ctx, "healthy")
}

func TestPromptBuilder_Build(t *testing.T) {
	builder := usecase.NewPromptBuilder()

	t.Run("concise template wraps tagged sections", func(t *testing.T) {
		prompt, err := builder.Build("what is a cat", "Cats are small.", false)
		require.NoError(t, err)

		assert.Contains(t, prompt, "concisely")
		assert.Contains(t, prompt, "<context>\nCats are small.\n</context>")
		assert.Contains(t, prompt, "<query>\nwhat is a cat\n</query>")
		assert.True(t, strings.Index(prompt, "<context>") < strings.Index(prompt, "<query>"))
	})

	t.Run("generate template asks for long-form output", func(t *testing.T) {
		prompt, err := builder.Build("write about cats", "Cats are small.", true)
		require.NoError(t, err)
		assert.Contains(t, prompt, "long-form piece")
	})

	t.Run("rejects empty query or context", func(t *testing.T) {
		_, err := builder.Build("", "context", false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = builder.Build("query", "  ", false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
