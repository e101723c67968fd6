package chat

import (
	"encoding/json"

	"github.com/futig/rag-assistant/internal/entity"
)

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = `You are a document-specific RAG assistant.

Rules:
- ONLY use retrieved chunk_text
- NEVER mix documents
- ALWAYS mention filename
- Always use the search_documents tool to answer questions about the document content.
- If a search returns "No relevant information was found in the uploaded document.", say so and do not guess.`

const (
	toolListAvailableFiles = "list_available_files"
	toolSearchDocuments    = "search_documents"
)

// toolDefinitions never advertises a document id: the search is always bound
// to the document of the current request.
func toolDefinitions() []entity.LLMTool {
	return []entity.LLMTool{
		{
			Type: "function",
			Function: entity.LLMFunctionDef{
				Name:        toolListAvailableFiles,
				Description: "List all uploaded documents",
				Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
			},
		},
		{
			Type: "function",
			Function: entity.LLMFunctionDef{
				Name:        toolSearchDocuments,
				Description: "Search inside the currently active document",
				Parameters:  json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
			},
		},
	}
}

// sanitizeHistory keeps user and assistant turns with content, and only their
// role and text.
func sanitizeHistory(history []entity.HistoryMessage) []entity.LLMMessage {
	messages := make([]entity.LLMMessage, 0, len(history))
	for _, turn := range history {
		if turn.Role != entity.RoleUser && turn.Role != entity.RoleAssistant {
			continue
		}
		if turn.Content == "" {
			continue
		}
		messages = append(messages, entity.LLMMessage{Role: turn.Role, Content: turn.Content})
	}
	return messages
}
