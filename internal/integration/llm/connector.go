package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/integration/common"
	pkghttp "github.com/futig/rag-assistant/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const chatCompletionsEndpoint = "/chat/completions"

// Connector talks to an OpenAI-compatible chat completions API.
type Connector struct {
	config    config.LLMConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConfig,
	logger *zap.Logger,
) *Connector {
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), max(cfg.RateLimitBurst, 1))
	}

	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, pkghttp.WithRateLimit(limiter)),
		config:    cfg,
		logger:    logger,
	}
}

// Complete sends one chat completion request. Model, temperature and token
// limit fall back to the configured values when the request leaves them unset.
func (c *Connector) Complete(ctx context.Context, req *entity.LLMCompletionRequest) (
	*entity.LLMCompletionResponse, error,
) {
	body := *req
	if body.Model == "" {
		body.Model = c.config.Model
	}
	if body.Temperature == nil {
		temperature := c.config.Temperature
		body.Temperature = &temperature
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.config.MaxTokens
	}

	ctxzap.Debug(ctx, "requesting chat completion",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
		zap.Int("tools", len(body.Tools)),
		zap.String("tool_choice", body.ToolChoice),
	)

	var resp entity.LLMCompletionResponse
	err := retry.Do(func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, chatCompletionsEndpoint, &body, &resp)
	}, c.config.Retry.ToRetryOptions(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrModelProvider, err)
	}

	ctxzap.Info(ctx, "chat completion received",
		zap.Int("choices", len(resp.Choices)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return &resp, nil
}
