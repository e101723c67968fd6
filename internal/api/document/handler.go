package document

import (
	"context"
	"errors"
	"net/http"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const uploadField = "file"

type Handler struct {
	ingest        IngestUsecase
	documents     DocumentLister
	maxUploadSize int64
}

func NewHandler(ingest IngestUsecase, documents DocumentLister, maxUploadSize int64) *Handler {
	return &Handler{
		ingest:        ingest,
		documents:     documents,
		maxUploadSize: maxUploadSize,
	}
}

// Upload handles POST /api/upload - ingest a single PDF or DOCX file
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Upload")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(ctx, w, http.StatusBadRequest, "File exceeds the maximum upload size", entity.StageValidate, err)
			return
		}
		h.respondError(ctx, w, http.StatusBadRequest, "Failed to parse form", entity.StageValidate, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "No file provided", entity.StageValidate, err)
		return
	}
	defer file.Close()

	ctx = logger.AddFields(ctx,
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
	)
	ctxzap.Info(ctx, "uploading document")

	res, err := h.ingest.Ingest(ctx, &entity.UploadRequest{File: file, Header: header})
	if err != nil {
		h.handleIngestError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "document uploaded",
		zap.String("document_id", res.DocumentID),
		zap.Int("chunks", res.ChunkCount),
		zap.Bool("skipped", res.Skipped),
	)

	response.Success(w, toUploadResponse(res))
}

// ListDocuments handles GET /api/documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDocuments")

	docs, err := h.documents.ListDocuments(ctx)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "Failed to list documents", "", err)
		return
	}

	out := make([]*entity.DocumentDetail, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentDetail(d))
	}

	ctxzap.Debug(ctx, "documents listed", zap.Int("count", len(out)))

	response.Success(w, entity.ListDocumentsResponse{Success: true, Documents: out})
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message, stage string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.String("stage", stage), zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.String("stage", stage), zap.Error(err))
	}
	response.StageFailure(w, status, message, stage)
}

func (h *Handler) handleIngestError(ctx context.Context, w http.ResponseWriter, err error) {
	stage := entity.StageOf(err)

	switch {
	case errors.Is(err, entity.ErrInvalidExtension):
		h.respondError(ctx, w, http.StatusBadRequest, "Only PDF and DOCX files are supported", stage, err)
	case errors.Is(err, entity.ErrFileTooLarge):
		h.respondError(ctx, w, http.StatusBadRequest, "File exceeds the maximum upload size", stage, err)
	case errors.Is(err, entity.ErrValidation):
		h.respondError(ctx, w, http.StatusBadRequest, "Invalid upload", stage, err)
	case errors.Is(err, entity.ErrEmptyDocument):
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "No text could be extracted from the document", stage, err)
	case errors.Is(err, entity.ErrExtraction):
		h.respondError(ctx, w, http.StatusUnprocessableEntity, "Failed to extract text", stage, err)
	case errors.Is(err, entity.ErrEmbeddingProvider):
		h.respondError(ctx, w, http.StatusInternalServerError, "Failed to generate embeddings", stage, err)
	case stage == entity.StageStoreFile:
		h.respondError(ctx, w, http.StatusInternalServerError, "Failed to upload file", stage, err)
	case stage == entity.StagePersist:
		h.respondError(ctx, w, http.StatusInternalServerError, "Failed to store document", stage, err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "Failed to process document", stage, err)
	}
}
