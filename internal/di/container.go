package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"local-rag/internal/adapter/httpapi"
	"local-rag/internal/adapter/loader"
	"local-rag/internal/adapter/ollama"
	"local-rag/internal/adapter/repository"
	"local-rag/internal/domain"
	"local-rag/internal/infra/config"
	"local-rag/internal/infra/httpclient"
	"local-rag/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Stores
	DocStore    domain.DocumentStore
	ParaStore   domain.ParagraphStore
	VectorIndex domain.VectorIndex

	// Usecases
	IngestUsecase   usecase.IngestDocumentUsecase
	RetrieveUsecase usecase.RetrieveChunksUsecase
	AnswerUsecase   usecase.AnswerQueryUsecase

	// Adapters
	Loaders *loader.Registry
	Handler *httpapi.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Stores
	docStore := repository.NewDocumentRepository(pool)
	paraStore := repository.NewParagraphRepository(pool)
	vectorIndex := repository.NewVectorRepository(pool)
	txManager := repository.NewPostgresTransactionManager(pool)

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(60 * time.Second)
	generatorHTTP := httpclient.NewPooledClient(300 * time.Second)
	rerankHTTP := httpclient.NewPooledClient(60 * time.Second)

	// Model clients
	embedder := ollama.NewEmbedder(cfg.OllamaURL, cfg.EmbeddingModel, 60*time.Second, cfg.EmbedRPS, log, embedderHTTP)
	generator := ollama.NewGenerator(cfg.OllamaURL, cfg.GenerationModel, 300*time.Second, generatorHTTP)
	rerankerClient := ollama.NewRerankerClient(cfg.RerankerURL, cfg.RerankerModel, 60*time.Second, log, rerankHTTP)

	// Usecases
	ingestUsecase := usecase.NewIngestDocumentUsecase(docStore, paraStore, vectorIndex, embedder, txManager, log)
	retrieveUsecase := usecase.NewRetrieveChunksUsecase(vectorIndex, embedder, log)
	rerankUsecase := usecase.NewRerankSourcesUsecase(rerankerClient, log)
	promptBuilder := usecase.NewPromptBuilder()

	answerUsecase := usecase.NewAnswerQueryUsecase(
		retrieveUsecase, rerankUsecase, promptBuilder, generator,
		docStore, paraStore, vectorIndex,
		cfg.AnswerMaxTokens, log,
		usecase.WithAnswerCache(cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second),
	)

	loaders := loader.NewRegistry()
	handler := httpapi.NewHandler(ingestUsecase, answerUsecase, loaders)

	return &ApplicationComponents{
		DocStore:        docStore,
		ParaStore:       paraStore,
		VectorIndex:     vectorIndex,
		IngestUsecase:   ingestUsecase,
		RetrieveUsecase: retrieveUsecase,
		AnswerUsecase:   answerUsecase,
		Loaders:         loaders,
		Handler:         handler,
	}
}
