package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/rag-assistant/internal/api"
	chatapi "github.com/futig/rag-assistant/internal/api/chat"
	documentapi "github.com/futig/rag-assistant/internal/api/document"
	toolsapi "github.com/futig/rag-assistant/internal/api/tools"
	"github.com/futig/rag-assistant/internal/chunker"
	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/embedding"
	"github.com/futig/rag-assistant/internal/extract"
	embeddingconn "github.com/futig/rag-assistant/internal/integration/embedding"
	"github.com/futig/rag-assistant/internal/integration/llm"
	"github.com/futig/rag-assistant/internal/pkg/formatter"
	pkglogger "github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/pkg/validator"
	"github.com/futig/rag-assistant/internal/repository"
	"github.com/futig/rag-assistant/internal/storage"
	"github.com/futig/rag-assistant/internal/usecase/chat"
	"github.com/futig/rag-assistant/internal/usecase/ingest"
	"github.com/futig/rag-assistant/internal/usecase/tools"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := pkglogger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("store_backend", cfg.StoreBackend),
	)

	store, db, err := setupStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	closeDB := func() {
		if db != nil {
			db.Close()
		}
	}

	blobs, err := storage.NewLocalStorage(cfg.StorageDir)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("setup blob storage: %w", err)
	}

	textChunker, err := chunker.New(cfg.ChunkingCfg.Size, cfg.ChunkingCfg.Overlap)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("setup chunker: %w", err)
	}

	if err := formatter.SetLicenseKey(cfg.UnidocLicenseKey); err != nil {
		logger.Warn("DOCX export will be unavailable", zap.Error(err))
	}

	gateway := setupEmbedding(cfg, logger)

	var llmConnector chat.LLMConnector
	if cfg.EnableMocks {
		logger.Info("Using mock connector for the language model")
		llmConnector = llm.NewMockConnector(logger)
	} else {
		logger.Info("Using real connector for the language model",
			zap.String("model", cfg.LLMCfg.Model),
			zap.String("url", cfg.LLMCfg.Url),
		)
		llmConnector = llm.NewConnector(cfg.LLMCfg, logger)
	}

	requestValidator := validator.NewValidator(cfg.FileUploadCfg)

	// Initialize use cases
	toolsUC := tools.NewUsecase(store, gateway, cfg.SearchCfg, cfg.DocumentCacheTTL, logger)
	ingestUC := ingest.NewUsecase(
		store,
		blobs,
		extract.NewExtractor(),
		textChunker,
		gateway,
		requestValidator,
		toolsUC,
		logger,
	)
	chatUC := chat.NewUsecase(llmConnector, toolsUC, cfg.SystemPrompt, logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	documentHandler := documentapi.NewHandler(ingestUC, toolsUC, cfg.FileUploadCfg.MaxUploadSize)
	chatHandler := chatapi.NewHandler(chatUC, formatter.NewFactory(), requestValidator)
	toolsHandler := toolsapi.NewHandler(toolsUC, requestValidator)

	router := api.SetupRouter(documentHandler, chatHandler, toolsHandler, gateway, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
		zap.String("embedding_strategy", gateway.Strategy()),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// setupStore returns the configured document store. The pool is nil for the
// memory backend.
func setupStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.DocumentStore, *pgxpool.Pool, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Warn("Using in-memory document store, documents are lost on restart")
		return repository.NewDocumentMemory(), nil, nil
	}

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	logger.Info("Running database migrations", zap.String("source", cfg.MigrationsPath))
	if err := repository.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	return repository.NewDocumentPostgres(db), db, nil
}

func setupEmbedding(cfg *config.Config, logger *zap.Logger) *embedding.Gateway {
	embCfg := cfg.EmbeddingCfg
	hash := embedding.NewHashEmbedder(embCfg.Dimensions)

	var primary embedding.Provider
	switch {
	case cfg.EnableMocks:
		logger.Info("Using deterministic hash embeddings (mocks enabled)")
	case embCfg.Provider == config.EmbeddingProviderOpenAI:
		primary = embeddingconn.NewOpenAIConnector(embCfg, logger)
	case embCfg.Provider == config.EmbeddingProviderOllama:
		primary = embeddingconn.NewOllamaConnector(embCfg, logger)
	}

	gateway := embedding.NewGateway(primary, hash, logger,
		embedding.WithFallback(embCfg.AllowFallback),
		embedding.WithQueryCache(embCfg.CacheTTL),
	)

	logger.Info("Embedding gateway initialized",
		zap.String("embedding_strategy", gateway.Strategy()),
		zap.String("fallback_strategy", hash.Strategy()),
		zap.Bool("allow_fallback", embCfg.AllowFallback),
	)

	return gateway
}
