package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/usecase/tools"
	"go.uber.org/zap"
)

// ChatUsecase runs one chat turn: a tool-enabled model call, the requested
// tools, then a final model call with tools disabled.
type ChatUsecase struct {
	llm          LLMConnector
	tools        DocumentTools
	systemPrompt string
	now          func() time.Time
	logger       *zap.Logger
}

func NewUsecase(
	llm LLMConnector,
	tools DocumentTools,
	systemPrompt string,
	log *zap.Logger,
) *ChatUsecase {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return &ChatUsecase{
		llm:          llm,
		tools:        tools,
		systemPrompt: systemPrompt,
		now:          time.Now,
		logger:       log,
	}
}

// Chat answers req.Message about the document req.DocumentID. The caller is
// expected to have validated the request.
func (uc *ChatUsecase) Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResult, error) {
	messages := make([]entity.LLMMessage, 0, len(req.History)+4)
	messages = append(messages, entity.LLMMessage{Role: entity.RoleSystem, Content: uc.systemPrompt})
	messages = append(messages, sanitizeHistory(req.History)...)
	messages = append(messages, entity.LLMMessage{Role: entity.RoleUser, Content: req.Message})

	definitions := toolDefinitions()

	reply, err := uc.complete(ctx, &entity.LLMCompletionRequest{
		Messages:   messages,
		Tools:      definitions,
		ToolChoice: entity.ToolChoiceAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("first completion: %w", err)
	}

	calls := reply.ToolCalls
	if len(calls) == 0 {
		if recovered, ok := recoverInlineCall(reply.Content, uc.now()); ok {
			uc.log(ctx).Info("recovered inline tool call",
				zap.String("tool", recovered.Call.Function.Name),
			)
			calls = []entity.LLMToolCall{recovered.Call}
			reply.Content = recovered.Text
			reply.ToolCalls = calls
		}
	}

	if len(calls) == 0 {
		return &entity.ChatResult{Message: reply.Content, ToolsUsed: []string{}}, nil
	}

	reply.Role = entity.RoleAssistant
	messages = append(messages, reply)

	toolsUsed := make([]string, 0, len(calls))
	searches, emptySearches := 0, 0

	for _, call := range calls {
		toolsUsed = append(toolsUsed, call.Function.Name)

		result, isSearch := uc.runTool(ctx, call, req.DocumentID)
		if isSearch {
			searches++
			if result == tools.NoRelevantInformation {
				emptySearches++
			}
		}

		messages = append(messages, entity.LLMMessage{
			Role:       entity.RoleTool,
			ToolCallID: call.ID,
			Content:    result,
		})
	}

	if searches > 0 && searches == emptySearches {
		uc.log(ctx).Info("no relevant chunks found, skipping final completion",
			zap.Strings("tools_used", toolsUsed),
		)
		return &entity.ChatResult{Message: tools.NoRelevantInformation, ToolsUsed: toolsUsed}, nil
	}

	final, err := uc.complete(ctx, &entity.LLMCompletionRequest{
		Messages:   messages,
		Tools:      definitions,
		ToolChoice: entity.ToolChoiceNone,
	})
	if err != nil {
		return nil, fmt.Errorf("final completion: %w", err)
	}

	uc.log(ctx).Info("chat turn completed", zap.Strings("tools_used", toolsUsed))

	return &entity.ChatResult{Message: final.Content, ToolsUsed: toolsUsed}, nil
}

func (uc *ChatUsecase) complete(ctx context.Context, req *entity.LLMCompletionRequest) (entity.LLMMessage, error) {
	resp, err := uc.llm.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, entity.ErrModelProvider) {
			return entity.LLMMessage{}, err
		}
		return entity.LLMMessage{}, fmt.Errorf("%w: %v", entity.ErrModelProvider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return entity.LLMMessage{}, fmt.Errorf("%w: completion has no choices", entity.ErrModelProtocol)
	}
	return resp.Choices[0].Message, nil
}

// runTool executes one call and returns the text fed back to the model.
// Failures never abort the turn; they become an "Error: ..." result.
func (uc *ChatUsecase) runTool(ctx context.Context, call entity.LLMToolCall, documentID string) (string, bool) {
	invocation, err := decodeToolCall(call)
	if err != nil {
		uc.log(ctx).Warn("model emitted an invalid tool call",
			zap.String("tool", call.Function.Name),
			zap.String("tool_call_id", call.ID),
			zap.Error(err),
		)
		return "Error: " + err.Error(), false
	}

	_, isSearch := invocation.(searchInvocation)

	result, err := invocation.execute(ctx, uc.tools, documentID)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", entity.ErrToolExecution, call.Function.Name, err)
		uc.log(ctx).Error("tool execution failed",
			zap.String("tool", call.Function.Name),
			zap.String("tool_call_id", call.ID),
			zap.Error(err),
		)
		return "Error: " + err.Error(), isSearch
	}

	uc.log(ctx).Debug("tool executed",
		zap.String("tool", call.Function.Name),
		zap.Int("result_length", len(result)),
	)

	return result, isSearch
}

func (uc *ChatUsecase) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, uc.logger)
}
