package repository

import (
	"context"
	"errors"
	"fmt"

	"local-rag/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new DocumentStore backed by Postgres.
func NewDocumentRepository(pool *pgxpool.Pool) domain.DocumentStore {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Add(ctx context.Context, doc domain.Document) error {
	query := `
		INSERT INTO rag_documents (id, name, chunk_strategy, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := executor(ctx, r.pool).Exec(ctx, query, doc.ID, doc.Name, string(doc.ChunkStrategy))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	query := `
		SELECT id, name, chunk_strategy, created_at
		FROM rag_documents
		WHERE id = $1
	`
	row := executor(ctx, r.pool).QueryRow(ctx, query, documentID)

	var doc domain.Document
	var strategy string
	err := row.Scan(&doc.ID, &doc.Name, &strategy, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	doc.ChunkStrategy = domain.ChunkStrategy(strategy)
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context) ([]domain.Document, error) {
	query := `
		SELECT id, name, chunk_strategy, created_at
		FROM rag_documents
		ORDER BY created_at ASC
	`
	rows, err := executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var strategy string
		if err := rows.Scan(&doc.ID, &doc.Name, &strategy, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.ChunkStrategy = domain.ChunkStrategy(strategy)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, documentID string) error {
	query := `DELETE FROM rag_documents WHERE id = $1`
	_, err := executor(ctx, r.pool).Exec(ctx, query, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
