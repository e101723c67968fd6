package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/futig/rag-assistant/internal/chunker"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/validator"
	"github.com/futig/rag-assistant/internal/repository"
	"github.com/futig/rag-assistant/internal/storage"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// IngestUsecase turns an uploaded file into a stored, embedded document
type IngestUsecase struct {
	store     repository.DocumentStore
	blobs     BlobStorage
	extractor TextExtractor
	chunker   *chunker.Chunker
	embedder  Embedder
	validator *validator.Validator
	cache     DocumentCache
	logger    *zap.Logger
}

// NewUsecase creates a new ingestion use case
func NewUsecase(
	store repository.DocumentStore,
	blobs BlobStorage,
	extractor TextExtractor,
	chunker *chunker.Chunker,
	embedder Embedder,
	validator *validator.Validator,
	cache DocumentCache,
	logger *zap.Logger,
) *IngestUsecase {
	return &IngestUsecase{
		store:     store,
		blobs:     blobs,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		validator: validator,
		cache:     cache,
		logger:    logger,
	}
}

// Ingest stores the file, extracts and chunks its text, embeds the chunks and
// persists everything atomically. A filename that is already stored is
// reported as skipped. Failures are wrapped in entity.StageError and leave no
// blob or rows behind.
func (uc *IngestUsecase) Ingest(ctx context.Context, req *entity.UploadRequest) (*entity.IngestResult, error) {
	if err := uc.validator.ValidateUpload(req.Header); err != nil {
		return nil, entity.NewStageError(entity.StageValidate, err)
	}

	filename := filepath.Base(req.Header.Filename)
	contentType, _ := entity.ContentTypeFromFilename(filename)

	if existing, err := uc.findExisting(ctx, filename); err != nil || existing != nil {
		return existing, err
	}

	data, err := io.ReadAll(req.File)
	if err != nil {
		return nil, entity.NewStageError(entity.StageValidate, fmt.Errorf("read upload: %w", err))
	}

	doc := &entity.Document{
		ID:          uuid.New().String(),
		Filename:    filename,
		ContentType: contentType,
	}
	doc.StorageRef = storage.Ref(doc.ID, validator.SanitizeFilename(filename))

	if err := uc.blobs.Save(ctx, doc.StorageRef, data); err != nil {
		return nil, entity.NewStageError(entity.StageStoreFile, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := uc.blobs.Delete(context.WithoutCancel(ctx), doc.StorageRef); err != nil {
			ctxzap.Warn(ctx, "failed to delete blob of failed upload",
				zap.String("storage_ref", doc.StorageRef),
				zap.Error(err),
			)
		}
	}()

	chunks, err := uc.prepareChunks(ctx, doc, data)
	if err != nil {
		return nil, err
	}

	if err := uc.store.SaveDocument(ctx, doc, chunks); err != nil {
		if errors.Is(err, entity.ErrDocumentExists) {
			// a concurrent upload of the same filename won the race
			ctxzap.Info(ctx, "document stored concurrently, skipping", zap.String("filename", filename))
			existing, ferr := uc.findExisting(ctx, filename)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, entity.NewStageError(entity.StagePersist, err)
	}
	committed = true

	uc.cache.InvalidateDocuments()

	ctxzap.Info(ctx, "document ingested",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.Int("chunk_count", len(chunks)),
		zap.String("embedding_strategy", doc.EmbeddingStrategy),
	)

	return &entity.IngestResult{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		ChunkCount: len(chunks),
	}, nil
}

func (uc *IngestUsecase) findExisting(ctx context.Context, filename string) (*entity.IngestResult, error) {
	existing, err := uc.store.FindByFilename(ctx, filename)
	if err != nil {
		if errors.Is(err, entity.ErrDocumentNotFound) {
			return nil, nil
		}
		return nil, entity.NewStageError(entity.StagePersist, err)
	}

	ctxzap.Info(ctx, "document already exists, skipping processing",
		zap.String("document_id", existing.ID),
		zap.String("filename", filename),
	)

	return &entity.IngestResult{
		DocumentID: existing.ID,
		Filename:   existing.Filename,
		Skipped:    true,
	}, nil
}

// prepareChunks runs extract, chunk and embed, filling in the document's
// embedding strategy and dimensions.
func (uc *IngestUsecase) prepareChunks(ctx context.Context, doc *entity.Document, data []byte) ([]entity.Chunk, error) {
	text, err := uc.extractor.Extract(ctx, doc.Filename, data)
	if err != nil {
		return nil, entity.NewStageError(entity.StageExtract, err)
	}

	pieces := uc.chunker.Split(text)
	if len(pieces) == 0 {
		return nil, entity.NewStageError(entity.StageChunk, entity.ErrEmptyDocument)
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Text
	}

	embeddings, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, entity.NewStageError(entity.StageEmbed, err)
	}
	if len(embeddings.Vectors) != len(pieces) {
		return nil, entity.NewStageError(entity.StageEmbed,
			fmt.Errorf("%w: %d vectors for %d chunks", entity.ErrEmbeddingProvider, len(embeddings.Vectors), len(pieces)))
	}

	doc.EmbeddingStrategy = embeddings.Strategy
	doc.Dimensions = len(embeddings.Vectors[0])

	chunks := make([]entity.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = entity.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Index:      piece.Index,
			Text:       piece.Text,
			Embedding:  embeddings.Vectors[i],
		}
	}

	ctxzap.Debug(ctx, "document chunked and embedded",
		zap.Int("text_runes", len([]rune(text))),
		zap.Int("chunk_count", len(chunks)),
	)

	return chunks, nil
}
