package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/rag-assistant/internal/entity"
)

// toolInvocation is one of the known tools with its decoded arguments.
type toolInvocation interface {
	execute(ctx context.Context, tools DocumentTools, documentID string) (string, error)
}

type listFilesInvocation struct{}

func (listFilesInvocation) execute(ctx context.Context, tools DocumentTools, _ string) (string, error) {
	return tools.ListAvailableFiles(ctx)
}

type searchInvocation struct {
	Query string
}

// execute always searches documentID, the document bound to the request.
func (s searchInvocation) execute(ctx context.Context, tools DocumentTools, documentID string) (string, error) {
	return tools.SearchDocuments(ctx, s.Query, documentID)
}

type searchArguments struct {
	Query string `json:"query"`
}

// decodeToolCall maps a model-emitted call onto a known tool. Argument
// fields the tool does not define, such as a document id, are dropped.
func decodeToolCall(call entity.LLMToolCall) (toolInvocation, error) {
	raw := strings.TrimSpace(call.Function.Arguments)
	if raw == "" {
		raw = "{}"
	}

	switch call.Function.Name {
	case toolListAvailableFiles:
		var args map[string]any
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("%w: %s arguments: %v", entity.ErrModelProtocol, call.Function.Name, err)
		}
		return listFilesInvocation{}, nil

	case toolSearchDocuments:
		var args searchArguments
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return nil, fmt.Errorf("%w: %s arguments: %v", entity.ErrModelProtocol, call.Function.Name, err)
		}
		if strings.TrimSpace(args.Query) == "" {
			return nil, fmt.Errorf("%w: %s requires a non-empty query", entity.ErrModelProtocol, call.Function.Name)
		}
		return searchInvocation{Query: args.Query}, nil

	default:
		return nil, fmt.Errorf("%w: unknown tool %q", entity.ErrModelProtocol, call.Function.Name)
	}
}
