package repository

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
)

// DocumentStore persists documents with their embedded chunks and answers
// similarity queries scoped to a single document.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *entity.Document) error
	InsertChunks(ctx context.Context, chunks []entity.Chunk, strategy string) error
	// SaveDocument stores the document and all its chunks atomically.
	SaveDocument(ctx context.Context, doc *entity.Document, chunks []entity.Chunk) error
	GetDocument(ctx context.Context, id string) (*entity.Document, error)
	FindByFilename(ctx context.Context, filename string) (*entity.Document, error)
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	// QueryNearest ranks the chunks of one document by cosine similarity to query.
	QueryNearest(ctx context.Context, documentID string, query *entity.Vector, k int, threshold float64) ([]entity.ChunkMatch, error)
	// FirstChunks returns up to k chunks of a document in index order, unranked.
	FirstChunks(ctx context.Context, documentID string, k int) ([]entity.ChunkMatch, error)
	CountChunks(ctx context.Context, documentID string) (int, error)
}

var (
	_ DocumentStore = &DocumentPostgres{}
	_ DocumentStore = &DocumentMemory{}
)
