package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"local-rag/internal/di"
	"local-rag/internal/domain"
	"local-rag/internal/infra"
	"local-rag/internal/infra/config"
	"local-rag/internal/infra/logger"
	"local-rag/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Operator CLI for the local RAG pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newIngestCmd(), newAskCmd(), newDocsCmd(), newReconcileCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect builds the full component graph against the configured database.
func connect(ctx context.Context) (*di.ApplicationComponents, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log := logger.New()

	pool, err := infra.NewPostgresDB(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	if err := infra.EnsureSchema(ctx, pool, cfg.EmbeddingDim); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return di.NewApplicationComponents(cfg, pool, log), pool, nil
}

func newIngestCmd() *cobra.Command {
	var (
		name       string
		strategy   string
		text       string
		filePath   string
		sourceKind string
		documentID string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest raw text or a source file into a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			components, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			input := text
			if input == "" && filePath != "" {
				kind, err := domain.ParseSourceKind(sourceKind)
				if err != nil {
					return err
				}
				l, err := components.Loaders.ForKind(kind)
				if err != nil {
					return err
				}
				input, err = l.Load(ctx, filePath)
				if err != nil {
					return err
				}
			}

			output, err := components.IngestUsecase.Ingest(ctx, usecase.IngestInput{
				Text:               input,
				DocumentName:       name,
				Strategy:           domain.ChunkStrategy(strategy),
				ExistingDocumentID: documentID,
			})
			if err != nil {
				return err
			}

			fmt.Printf("document %s: %d chunks ingested\n", output.DocumentID, len(output.Chunks))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "document name (new documents)")
	cmd.Flags().StringVar(&strategy, "strategy", string(domain.ChunkStrategyFixedWindow), "chunk strategy: fixed-window or small-to-big")
	cmd.Flags().StringVar(&text, "text", "", "raw text to ingest")
	cmd.Flags().StringVar(&filePath, "file", "", "source file to ingest")
	cmd.Flags().StringVar(&sourceKind, "kind", string(domain.SourceKindText), "source kind: text, pdf, docx or transcript")
	cmd.Flags().StringVar(&documentID, "document-id", "", "append to an existing document")
	return cmd
}

func newAskCmd() *cobra.Command {
	var (
		documentID string
		k          int
		rerank     bool
		generate   bool
	)

	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a query against one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			components, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			output, err := components.AnswerUsecase.Answer(ctx, usecase.AnswerInput{
				Query:      args[0],
				K:          k,
				DocumentID: documentID,
				Rerank:     rerank,
				Generate:   generate,
			})
			if err != nil {
				return err
			}

			fmt.Println(output.Answer)
			fmt.Println()
			for i, s := range output.Sources {
				fmt.Printf("[%d] %s (score %.3f)\n", i+1, s.ChunkID, s.Score)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&documentID, "doc", "", "document id to query")
	cmd.Flags().IntVar(&k, "k", 5, "number of context passages")
	cmd.Flags().BoolVar(&rerank, "rerank", false, "rerank candidates with the cross-encoder")
	cmd.Flags().BoolVar(&generate, "generate", false, "long-form content mode")
	return cmd
}

func newDocsCmd() *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "Manage registered documents",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			components, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			documents, err := components.AnswerUsecase.ListDocuments(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTRATEGY\tCREATED")
			for _, doc := range documents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					doc.ID, doc.Name, doc.ChunkStrategy, doc.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete [document-id]",
		Short: "Delete a document, its paragraphs and its vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			components, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := components.AnswerUsecase.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("document %s deleted\n", args[0])
			return nil
		},
	}

	docs.AddCommand(list, del)
	return docs
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Remove orphan documents left by interrupted ingestions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			components, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			removed, err := components.AnswerUsecase.Reconcile(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%d orphan document(s) removed\n", removed)
			return nil
		},
	}
}
