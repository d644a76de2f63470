package domain

import (
	"context"
)

// DocumentStore persists document-level metadata.
type DocumentStore interface {
	Add(ctx context.Context, doc Document) error

	// Get retrieves a document by id. Returns nil, nil if not found.
	Get(ctx context.Context, documentID string) (*Document, error)

	List(ctx context.Context) ([]Document, error)

	// Delete removes the document row. Deleting an absent document is a no-op.
	Delete(ctx context.Context, documentID string) error
}

// ParagraphRow is one persisted chunk context, keyed by chunk id.
type ParagraphRow struct {
	DocumentName string
	DocumentID   string
	ChunkID      string
	Context      string
}

// ParagraphStore persists chunk context text keyed by chunk id.
type ParagraphStore interface {
	// AddBulk inserts all rows in one bulk operation.
	AddBulk(ctx context.Context, rows []ParagraphRow) error

	// Get returns the context text stored for the chunk id.
	Get(ctx context.Context, chunkID string) (string, error)

	// CountByDocument returns the number of chunk rows held for a document.
	CountByDocument(ctx context.Context, documentID string) (int, error)

	// DeleteByDocument removes every chunk row of a document. Absent rows
	// are a no-op.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// VectorRecord is one embedding with its attached metadata.
type VectorRecord struct {
	ChunkID    string
	DocumentID string
	Embedding  []float32
}

// VectorMatch is a nearest-neighbor hit. Distance is the raw cosine distance
// reported by the index; smaller means closer.
type VectorMatch struct {
	ChunkID  string
	Distance float32
}

// VectorIndex persists embeddings and supports cosine similarity search.
// Collections are keyed by document id.
type VectorIndex interface {
	Upsert(ctx context.Context, collection string, records []VectorRecord) error

	// Query returns at most k matches ordered by ascending cosine distance.
	// Callers must not rely on that ordering and should re-sort by score.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]VectorMatch, error)

	// DeleteCollection drops all vectors of a document. Absent collections
	// are a no-op.
	DeleteCollection(ctx context.Context, collection string) error
}

// TransactionManager runs a function inside a database transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
