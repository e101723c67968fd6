package tools

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
)

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text, strategy string) (*entity.Vector, error)
}
