package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	// NoRelevantInformation is returned by SearchDocuments when nothing matched.
	NoRelevantInformation = "No relevant information was found in the uploaded document."
	// UnrankedNotice heads SearchDocuments output built from fallback chunks.
	UnrankedNotice = "Note: semantic search was unavailable. The sections below are the opening sections of the document in order, not ranked by relevance."
	// NoFiles is returned by ListAvailableFiles for an empty corpus.
	NoFiles = "No files"

	documentsCacheKey = "documents"
	resultSeparator   = "\n\n---\n\n"
)

// ToolsUsecase is the retrieval layer shared by the chat orchestrator and the tool endpoints
type ToolsUsecase struct {
	store    repository.DocumentStore
	embedder QueryEmbedder
	cfg      config.SearchConfig
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewUsecase(
	store repository.DocumentStore,
	embedder QueryEmbedder,
	cfg config.SearchConfig,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ToolsUsecase {
	uc := &ToolsUsecase{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
	if cacheTTL > 0 {
		uc.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return uc
}

// ListDocuments returns every stored document, oldest first
func (uc *ToolsUsecase) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(documentsCacheKey); ok {
			return cached.([]*entity.Document), nil
		}
	}

	docs, err := uc.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	if uc.cache != nil {
		uc.cache.SetDefault(documentsCacheKey, docs)
	}
	return docs, nil
}

// InvalidateDocuments drops the cached document list
func (uc *ToolsUsecase) InvalidateDocuments() {
	if uc.cache != nil {
		uc.cache.Delete(documentsCacheKey)
	}
}

// ListAvailableFiles renders the document list for the model
func (uc *ToolsUsecase) ListAvailableFiles(ctx context.Context) (string, error) {
	docs, err := uc.ListDocuments(ctx)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return NoFiles, nil
	}

	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Filename
	}
	return strings.Join(names, ", "), nil
}

// Search ranks the chunks of one document against query. When the query
// cannot be embedded or ranked, the first chunks of the document are returned
// unranked with Fallback set.
func (uc *ToolsUsecase) Search(ctx context.Context, query, documentID string) (*entity.SearchResult, error) {
	doc, err := uc.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	result := &entity.SearchResult{Document: doc}

	vector, err := uc.embedder.EmbedQuery(ctx, query, doc.EmbeddingStrategy)
	if err != nil {
		ctxzap.Warn(ctx, "query embedding failed, returning unranked chunks",
			zap.String("document_id", doc.ID),
			zap.String("embedding_strategy", doc.EmbeddingStrategy),
			zap.Error(err),
		)
		return uc.fallback(ctx, result)
	}

	matches, err := uc.store.QueryNearest(ctx, doc.ID, vector, uc.cfg.MatchCount, uc.cfg.Threshold)
	if err != nil {
		if errors.Is(err, entity.ErrDocumentNotFound) || errors.Is(err, entity.ErrStrategyMismatch) {
			return nil, err
		}
		ctxzap.Warn(ctx, "similarity query failed, returning unranked chunks",
			zap.String("document_id", doc.ID),
			zap.Error(err),
		)
		return uc.fallback(ctx, result)
	}

	result.Matches = matches

	ctxzap.Debug(ctx, "document searched",
		zap.String("document_id", doc.ID),
		zap.Int("matches", len(matches)),
	)

	return result, nil
}

func (uc *ToolsUsecase) fallback(ctx context.Context, result *entity.SearchResult) (*entity.SearchResult, error) {
	matches, err := uc.store.FirstChunks(ctx, result.Document.ID, uc.cfg.MatchCount)
	if err != nil {
		return nil, fmt.Errorf("fallback chunks: %w", err)
	}

	result.Matches = matches
	result.Fallback = true
	return result, nil
}

// SearchDocuments renders the top matches of Search as the text handed to
// the model, or NoRelevantInformation when nothing matched. Unranked fallback
// output starts with UnrankedNotice.
func (uc *ToolsUsecase) SearchDocuments(ctx context.Context, query, documentID string) (string, error) {
	result, err := uc.Search(ctx, query, documentID)
	if err != nil {
		return "", err
	}
	if len(result.Matches) == 0 {
		return NoRelevantInformation, nil
	}

	matches := result.Matches
	if uc.cfg.TopK > 0 && len(matches) > uc.cfg.TopK {
		matches = matches[:uc.cfg.TopK]
	}

	blocks := make([]string, len(matches))
	for i, match := range matches {
		blocks[i] = fmt.Sprintf("File: %s\nContent: %s", result.Document.Filename, match.Chunk.Text)
	}
	text := strings.Join(blocks, resultSeparator)
	if result.Fallback {
		text = UnrankedNotice + "\n\n" + text
	}
	return text, nil
}
