package chat

import "github.com/futig/rag-assistant/internal/entity"

func toChatResponse(res *entity.ChatResult) *entity.ChatResponse {
	toolsUsed := res.ToolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	return &entity.ChatResponse{
		Success:   true,
		Message:   res.Message,
		ToolsUsed: toolsUsed,
	}
}
