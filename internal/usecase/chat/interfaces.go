package chat

import (
	"context"

	"github.com/futig/rag-assistant/internal/entity"
)

type LLMConnector interface {
	Complete(ctx context.Context, req *entity.LLMCompletionRequest) (*entity.LLMCompletionResponse, error)
}

// DocumentTools executes the retrieval tools offered to the model.
type DocumentTools interface {
	ListAvailableFiles(ctx context.Context) (string, error)
	SearchDocuments(ctx context.Context, query, documentID string) (string, error)
}
