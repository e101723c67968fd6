// Package embedding holds the remote embedding connectors used by the gateway.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/avast/retry-go/v4"
	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/integration/common"
	pkghttp "github.com/futig/rag-assistant/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	openAIEmbeddingsEndpoint = "/embeddings"
	ollamaEmbedEndpoint      = "/api/embed"
	defaultBatchSize         = 64
)

// OpenAIConnector calls an OpenAI-compatible /embeddings endpoint.
type OpenAIConnector struct {
	config    config.EmbeddingConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewOpenAIConnector(cfg config.EmbeddingConfig, logger *zap.Logger) *OpenAIConnector {
	return &OpenAIConnector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		logger:    logger,
	}
}

func (c *OpenAIConnector) Strategy() string {
	return "openai:" + c.config.Model
}

func (c *OpenAIConnector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, c.config.BatchSize, func(batch []string) ([][]float32, error) {
		req := &entity.EmbeddingRequest{
			Model: c.config.Model,
			Input: batch,
		}

		var resp entity.EmbeddingResponse
		err := retry.Do(func() error {
			return c.connector.DoRequest(ctx, http.MethodPost, openAIEmbeddingsEndpoint, req, &resp)
		}, c.config.Retry.ToRetryOptions(ctx)...)
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}

		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(batch))
		}

		sort.Slice(resp.Data, func(i, j int) bool {
			return resp.Data[i].Index < resp.Data[j].Index
		})

		vectors := make([][]float32, len(resp.Data))
		for i, item := range resp.Data {
			vectors[i] = item.Embedding
		}
		return vectors, nil
	})
}

// OllamaConnector calls the Ollama /api/embed endpoint.
type OllamaConnector struct {
	config    config.EmbeddingConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewOllamaConnector(cfg config.EmbeddingConfig, logger *zap.Logger) *OllamaConnector {
	return &OllamaConnector{
		config:    cfg,
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		logger:    logger,
	}
}

func (c *OllamaConnector) Strategy() string {
	return "ollama:" + c.config.Model
}

func (c *OllamaConnector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedInBatches(ctx, texts, c.config.BatchSize, func(batch []string) ([][]float32, error) {
		req := &entity.OllamaEmbedRequest{
			Model: c.config.Model,
			Input: batch,
		}

		var resp entity.OllamaEmbedResponse
		err := retry.Do(func() error {
			return c.connector.DoRequest(ctx, http.MethodPost, ollamaEmbedEndpoint, req, &resp)
		}, c.config.Retry.ToRetryOptions(ctx)...)
		if err != nil {
			return nil, fmt.Errorf("ollama embed: %w", err)
		}

		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(resp.Embeddings), len(batch))
		}
		return resp.Embeddings, nil
	})
}

func embedInBatches(ctx context.Context, texts []string, batchSize int, embed func([]string) ([][]float32, error)) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		batch, err := embed(texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)

		ctxzap.Debug(ctx, "embedded batch",
			zap.Int("from", start),
			zap.Int("to", end),
		)
	}

	return vectors, nil
}
