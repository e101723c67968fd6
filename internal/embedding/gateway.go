// Package embedding turns text into vectors and keeps every vector tagged
// with the strategy that produced it.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Provider is an embedding backend. Output must match input length and order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Strategy() string
}

type Gateway struct {
	primary       Provider
	fallback      *HashEmbedder
	allowFallback bool
	cache         *cache.Cache
	logger        *zap.Logger
	fallbacks     atomic.Uint64
}

type Option func(*Gateway)

// WithFallback enables or disables the deterministic fallback on provider failure.
func WithFallback(enabled bool) Option {
	return func(g *Gateway) {
		g.allowFallback = enabled
	}
}

// WithQueryCache caches primary-provider query vectors for ttl.
func WithQueryCache(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// NewGateway wires the primary provider with the hash fallback. A nil primary
// makes the hash embedder the only strategy.
func NewGateway(primary Provider, fallback *HashEmbedder, log *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		primary:       primary,
		fallback:      fallback,
		allowFallback: true,
		logger:        log,
	}
	if g.primary == nil {
		g.primary = fallback
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Strategy is the identifier of the primary strategy.
func (g *Gateway) Strategy() string {
	return g.primary.Strategy()
}

// FallbackCount reports how many batches were embedded by the fallback.
func (g *Gateway) FallbackCount() uint64 {
	return g.fallbacks.Load()
}

// Embed vectorizes texts with the primary provider. When the provider fails
// and fallback is allowed, the whole batch is embedded by the hash embedder so
// one call never mixes strategies.
func (g *Gateway) Embed(ctx context.Context, texts []string) (*entity.Embeddings, error) {
	if len(texts) == 0 {
		return &entity.Embeddings{Vectors: [][]float32{}, Strategy: g.primary.Strategy()}, nil
	}

	vectors, err := g.primary.Embed(ctx, texts)
	if err == nil {
		err = checkVectors(vectors, len(texts))
	}
	if err == nil {
		return &entity.Embeddings{Vectors: vectors, Strategy: g.primary.Strategy()}, nil
	}

	if !g.canFallback() || errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrEmbeddingProvider, g.primary.Strategy(), err)
	}

	g.fallbacks.Add(1)
	logger.FromContext(ctx, g.logger).Warn("embedding provider unavailable, using deterministic fallback",
		zap.String("primary_strategy", g.primary.Strategy()),
		zap.String("embedding_strategy", g.fallback.Strategy()),
		zap.Int("texts", len(texts)),
		zap.Error(err),
	)

	vectors, err = g.fallback.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback: %v", entity.ErrEmbeddingProvider, err)
	}

	return &entity.Embeddings{Vectors: vectors, Strategy: g.fallback.Strategy()}, nil
}

// EmbedQuery vectorizes text with exactly the given strategy, the one the
// target document was stored with.
func (g *Gateway) EmbedQuery(ctx context.Context, text, strategy string) (*entity.Vector, error) {
	switch strategy {
	case g.fallback.Strategy():
		return &entity.Vector{Values: g.fallback.Vector(text), Strategy: strategy}, nil
	case g.primary.Strategy():
	default:
		return nil, fmt.Errorf("%w: no embedder for strategy %q (active: %q)", entity.ErrStrategyMismatch, strategy, g.primary.Strategy())
	}

	key := strategy + "\x00" + text
	if g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			return &entity.Vector{Values: cached.([]float32), Strategy: strategy}, nil
		}
	}

	vectors, err := g.primary.Embed(ctx, []string{text})
	if err == nil {
		err = checkVectors(vectors, 1)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrEmbeddingProvider, strategy, err)
	}

	if g.cache != nil {
		g.cache.SetDefault(key, vectors[0])
	}

	return &entity.Vector{Values: vectors[0], Strategy: strategy}, nil
}

func (g *Gateway) canFallback() bool {
	return g.allowFallback && g.primary.Strategy() != g.fallback.Strategy()
}

func checkVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("provider returned %d vectors for %d inputs", len(vectors), want)
	}

	dims := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("provider returned an empty vector at %d", i)
		}
		if dims >= 0 && len(v) != dims {
			return fmt.Errorf("provider returned mixed dimensions %d and %d", dims, len(v))
		}
		dims = len(v)
	}
	return nil
}
