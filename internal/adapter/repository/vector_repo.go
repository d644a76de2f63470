package repository

import (
	"context"
	"fmt"

	"local-rag/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type vectorRepository struct {
	pool *pgxpool.Pool
}

// NewVectorRepository creates a VectorIndex backed by pgvector. One logical
// collection is one document id; all rows live in a single table scoped by
// that id.
func NewVectorRepository(pool *pgxpool.Pool) domain.VectorIndex {
	return &vectorRepository{pool: pool}
}

func (r *vectorRepository) Upsert(ctx context.Context, collection string, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO rag_embeddings (chunk_id, document_id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (chunk_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(query, record.ChunkID, collection, pgvector.NewVector(record.Embedding))
	}

	results := executor(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert embedding: %w", err)
		}
	}
	return nil
}

func (r *vectorRepository) Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.VectorMatch, error) {
	query := `
		SELECT chunk_id, embedding <=> $1 AS distance
		FROM rag_embeddings
		WHERE document_id = $2
		ORDER BY embedding <=> $1 ASC
		LIMIT $3
	`
	rows, err := executor(ctx, r.pool).Query(ctx, query, pgvector.NewVector(vector), collection, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var m domain.VectorMatch
		if err := rows.Scan(&m.ChunkID, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return matches, nil
}

func (r *vectorRepository) DeleteCollection(ctx context.Context, collection string) error {
	query := `DELETE FROM rag_embeddings WHERE document_id = $1`
	_, err := executor(ctx, r.pool).Exec(ctx, query, collection)
	if err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}
