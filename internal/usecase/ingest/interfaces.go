package ingest

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
)

type BlobStorage interface {
	Save(ctx context.Context, ref string, data []byte) error
	Delete(ctx context.Context, ref string) error
}

type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) (*entity.Embeddings, error)
}

// DocumentCache is notified when the set of documents changes.
type DocumentCache interface {
	InvalidateDocuments()
}
