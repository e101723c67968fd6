package document

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
)

type IngestUsecase interface {
	Ingest(ctx context.Context, req *entity.UploadRequest) (*entity.IngestResult, error)
}

type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
}
