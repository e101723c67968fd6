package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/formatter"
	"github.com/futig/rag-assistant/internal/pkg/logger"
	"github.com/futig/rag-assistant/internal/pkg/response"
	"github.com/futig/rag-assistant/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const transcriptBaseName = "chat-transcript"

type Handler struct {
	usecase    ChatUsecase
	formatters *formatter.Factory
	validator  *validator.Validator
}

func NewHandler(usecase ChatUsecase, formatters *formatter.Factory, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:    usecase,
		formatters: formatters,
		validator:  validator,
	}
}

// Chat handles POST /api/chat - answer a question about one document
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateChat(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "message & documentId required", err)
		return
	}

	ctx = logger.AddFields(ctx, zap.String("document_id", req.DocumentID))
	ctxzap.Info(ctx, "chat request", zap.Int("history", len(req.History)))

	res, err := h.usecase.Chat(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "chat answered", zap.Strings("tools_used", res.ToolsUsed))

	response.Success(w, toChatResponse(res))
}

// Export handles POST /api/chat/export - download the conversation as a document
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportChat")

	var req entity.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateExport(&req); err != nil {
		if errors.Is(err, entity.ErrUnsupportedFormat) {
			h.respondError(ctx, w, http.StatusBadRequest, "format must be markdown, docx or pdf", err)
			return
		}
		h.respondError(ctx, w, http.StatusBadRequest, "history required", err)
		return
	}

	fmtr, err := h.formatters.Create(req.Format)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "format must be markdown, docx or pdf", err)
		return
	}

	data, err := fmtr.Format(req.History)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to export transcript", err)
		return
	}

	ctxzap.Info(ctx, "transcript exported",
		zap.String("format", string(req.Format)),
		zap.Int("messages", len(req.History)),
		zap.Int("bytes", len(data)),
	)

	response.Attachment(w, fmtr.ContentType(), transcriptBaseName+fmtr.FileExtension(), data)
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
		h.respondError(ctx, w, http.StatusInternalServerError, "Failed to process chat request", err)
	}
}
