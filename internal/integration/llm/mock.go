package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector imitates a tool-calling model for local runs without an API key.
// The first turn asks for a tool, the follow-up turn echoes the tool output.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Complete(ctx context.Context, req *entity.LLMCompletionRequest) (
	*entity.LLMCompletionResponse, error,
) {
	ctxzap.Info(ctx, "[MOCK] chat completion", zap.Int("messages", len(req.Messages)))

	var msg entity.LLMMessage
	if req.ToolChoice == entity.ToolChoiceNone || len(req.Tools) == 0 {
		msg = m.summarize(req.Messages)
	} else {
		msg = m.callTool(req.Messages)
	}

	return &entity.LLMCompletionResponse{
		ID:    fmt.Sprintf("mock-%d", time.Now().UnixMilli()),
		Model: "mock",
		Choices: []entity.LLMChoice{
			{Message: msg, FinishReason: "stop"},
		},
	}, nil
}

func (m *MockConnector) callTool(messages []entity.LLMMessage) entity.LLMMessage {
	question := lastContent(messages, entity.RoleUser)

	name, args := "search_documents", map[string]string{"query": question}
	lower := strings.ToLower(question)
	if strings.Contains(lower, "files") || strings.Contains(lower, "documents") {
		name, args = "list_available_files", map[string]string{}
	}

	raw, _ := json.Marshal(args)
	return entity.LLMMessage{
		Role: entity.RoleAssistant,
		ToolCalls: []entity.LLMToolCall{
			{
				ID:       fmt.Sprintf("mock-call-%d", time.Now().UnixMilli()),
				Type:     "function",
				Function: entity.LLMFunctionCall{Name: name, Arguments: string(raw)},
			},
		},
	}
}

func (m *MockConnector) summarize(messages []entity.LLMMessage) entity.LLMMessage {
	content := lastContent(messages, entity.RoleTool)
	if content == "" {
		content = "I can only answer questions about the uploaded document."
	}

	return entity.LLMMessage{
		Role:    entity.RoleAssistant,
		Content: "[MOCK] " + content,
	}
}

func lastContent(messages []entity.LLMMessage, role string) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == role {
			return messages[i].Content
		}
	}
	return ""
}
