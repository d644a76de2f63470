package repository

import (
	"context"
	"errors"
	"fmt"

	"local-rag/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type paragraphRepository struct {
	pool *pgxpool.Pool
}

// NewParagraphRepository creates a new ParagraphStore backed by Postgres.
func NewParagraphRepository(pool *pgxpool.Pool) domain.ParagraphStore {
	return &paragraphRepository{pool: pool}
}

func (r *paragraphRepository) AddBulk(ctx context.Context, paragraphs []domain.ParagraphRow) error {
	if len(paragraphs) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(paragraphs))
	for i, p := range paragraphs {
		rows[i] = []interface{}{
			p.ChunkID,
			p.DocumentID,
			p.DocumentName,
			p.Context,
		}
	}

	_, err := executor(ctx, r.pool).CopyFrom(
		ctx,
		pgx.Identifier{"rag_paragraphs"},
		[]string{"chunk_id", "document_id", "document_name", "paragraph"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert paragraphs: %w", err)
	}

	return nil
}

func (r *paragraphRepository) Get(ctx context.Context, chunkID string) (string, error) {
	query := `SELECT paragraph FROM rag_paragraphs WHERE chunk_id = $1`
	row := executor(ctx, r.pool).QueryRow(ctx, query, chunkID)

	var paragraph string
	err := row.Scan(&paragraph)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("paragraph %s not found", chunkID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to scan paragraph: %w", err)
	}
	return paragraph, nil
}

func (r *paragraphRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	query := `SELECT COUNT(*) FROM rag_paragraphs WHERE document_id = $1`
	row := executor(ctx, r.pool).QueryRow(ctx, query, documentID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count paragraphs: %w", err)
	}
	return count, nil
}

func (r *paragraphRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	query := `DELETE FROM rag_paragraphs WHERE document_id = $1`
	_, err := executor(ctx, r.pool).Exec(ctx, query, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete paragraphs: %w", err)
	}
	return nil
}
