package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/pkg/response"
	"github.com/futig/rag-assistant/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   ToolsUsecase
	validator *validator.Validator
}

func NewHandler(usecase ToolsUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
	}
}

// ListFiles handles GET /api/tools/list-files
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListFiles")

	docs, err := h.usecase.ListDocuments(ctx)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "Failed to list files", err)
		return
	}

	out := make([]*entity.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentSummary(d))
	}

	response.Success(w, entity.ListFilesResponse{Success: true, Documents: out})
}

// Search handles POST /api/tools/search - similarity search within one document
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Search")

	var req entity.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSearch(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "query & documentId required", err)
		return
	}

	ctx = logger.AddFields(ctx, zap.String("document_id", req.DocumentID))

	res, err := h.usecase.Search(ctx, req.Query, req.DocumentID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "search completed",
		zap.Int("results", len(res.Matches)),
		zap.Bool("fallback", res.Fallback),
	)

	response.Success(w, toSearchResponse(res))
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Failure(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrDocumentNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "document not found", err)
	case errors.Is(err, entity.ErrValidation):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "Search failed", err)
	}
}
