package httpapi

import (
	"errors"
	"net/http"
	"time"

	"local-rag/internal/adapter/loader"
	"local-rag/internal/domain"
	"local-rag/internal/usecase"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	ingestUsecase usecase.IngestDocumentUsecase
	answerUsecase usecase.AnswerQueryUsecase
	loaders       *loader.Registry
}

func NewHandler(
	ingestUsecase usecase.IngestDocumentUsecase,
	answerUsecase usecase.AnswerQueryUsecase,
	loaders *loader.Registry,
) *Handler {
	return &Handler{
		ingestUsecase: ingestUsecase,
		answerUsecase: answerUsecase,
		loaders:       loaders,
	}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.POST("/v1/documents", h.IngestDocument)
	e.GET("/v1/documents", h.ListDocuments)
	e.DELETE("/v1/documents/:id", h.DeleteDocument)
	e.POST("/v1/answer", h.Answer)
	e.POST("/v1/reconcile", h.Reconcile)
}

func (h *Handler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// IngestRequest carries either raw text or a server-local source file.
type IngestRequest struct {
	Name       string `json:"name"`
	Strategy   string `json:"strategy"`
	Text       string `json:"text,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
	SourceKind string `json:"source_kind,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

// IngestResponse reports what ingestion produced.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

func (h *Handler) IngestDocument(ctx echo.Context) error {
	var req IngestRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	text := req.Text
	if text == "" && req.SourcePath != "" {
		kind, err := domain.ParseSourceKind(req.SourceKind)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		l, err := h.loaders.ForKind(kind)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		text, err = l.Load(ctx.Request().Context(), req.SourcePath)
		if err != nil {
			return ctx.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
	}

	output, err := h.ingestUsecase.Ingest(ctx.Request().Context(), usecase.IngestInput{
		Text:               text,
		DocumentName:       req.Name,
		Strategy:           domain.ChunkStrategy(req.Strategy),
		ExistingDocumentID: req.DocumentID,
	})
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, IngestResponse{
		DocumentID: output.DocumentID,
		ChunkCount: len(output.Chunks),
	})
}

// DocumentResponse is one registered document.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) ListDocuments(ctx echo.Context) error {
	docs, err := h.answerUsecase.ListDocuments(ctx.Request().Context())
	if err != nil {
		return writeError(ctx, err)
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, DocumentResponse{
			ID:        doc.ID,
			Name:      doc.Name,
			Strategy:  string(doc.ChunkStrategy),
			CreatedAt: doc.CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{"documents": out})
}

func (h *Handler) DeleteDocument(ctx echo.Context) error {
	if err := h.answerUsecase.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return writeError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// AnswerRequest selects the document and tuning flags for one query.
type AnswerRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	K          int    `json:"k"`
	Rerank     bool   `json:"rerank"`
	Generate   bool   `json:"generate"`
}

// AnswerSource is one context passage in the order it was fed to the model.
type AnswerSource struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float32 `json:"score"`
}

// AnswerResponse carries the generated text and its sources.
type AnswerResponse struct {
	Answer  string         `json:"answer"`
	Sources []AnswerSource `json:"sources"`
}

func (h *Handler) Answer(ctx echo.Context) error {
	var req AnswerRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	output, err := h.answerUsecase.Answer(ctx.Request().Context(), usecase.AnswerInput{
		Query:      req.Query,
		K:          req.K,
		DocumentID: req.DocumentID,
		Rerank:     req.Rerank,
		Generate:   req.Generate,
	})
	if err != nil {
		return writeError(ctx, err)
	}

	sources := make([]AnswerSource, 0, len(output.Sources))
	for _, s := range output.Sources {
		sources = append(sources, AnswerSource{ChunkID: s.ChunkID, Text: s.Text, Score: s.Score})
	}
	return ctx.JSON(http.StatusOK, AnswerResponse{
		Answer:  output.Answer,
		Sources: sources,
	})
}

func (h *Handler) Reconcile(ctx echo.Context) error {
	removed, err := h.answerUsecase.Reconcile(ctx.Request().Context())
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]int{"removed": removed})
}

func writeError(ctx echo.Context, err error) error {
	if errors.Is(err, domain.ErrInvalidInput) {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
