package tools

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
)

type ToolsUsecase interface {
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	Search(ctx context.Context, query, documentID string) (*entity.SearchResult, error)
}
