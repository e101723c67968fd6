package api

import (
	"net/http"
	"time"

	chatapi "github.com/futig/rag-assistant/internal/api/chat"
	"github.com/futig/rag-assistant/internal/api/docs"
	documentapi "github.com/futig/rag-assistant/internal/api/document"
	"github.com/futig/rag-assistant/internal/api/middleware"
	toolsapi "github.com/futig/rag-assistant/internal/api/tools"
	"github.com/futig/rag-assistant/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const requestTimeout = 60 * time.Second

// EmbeddingStatus reports the active embedding strategy for /health
type EmbeddingStatus interface {
	Strategy() string
	FallbackCount() uint64
}

type healthResponse struct {
	Status             string `json:"status"`
	EmbeddingStrategy  string `json:"embeddingStrategy,omitempty"`
	EmbeddingFallbacks uint64 `json:"embeddingFallbacks"`
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(
	documentHandler *documentapi.Handler,
	chatHandler *chatapi.Handler,
	toolsHandler *toolsapi.Handler,
	embedding EmbeddingStatus,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := healthResponse{Status: "healthy"}
		if embedding != nil {
			health.EmbeddingStrategy = embedding.Strategy()
			health.EmbeddingFallbacks = embedding.FallbackCount()
		}
		response.Success(w, health)
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	documentapi.RegisterRoutes(r, documentHandler)
	chatapi.RegisterRoutes(r, chatHandler)
	toolsapi.RegisterRoutes(r, toolsHandler)

	return r
}
