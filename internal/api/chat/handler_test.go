package chat

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futig/rag-assistant/internal/config"
	"github.com/futig/rag-assistant/internal/entity"
	"github.com/futig/rag-assistant/internal/pkg/formatter"
	"github.com/futig/rag-assistant/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	res *entity.ChatResult
	err error
	got *entity.ChatRequest
}

func (f *fakeChat) Chat(_ context.Context, req *entity.ChatRequest) (*entity.ChatResult, error) {
	f.got = req
	return f.res, f.err
}

func newRouter(uc ChatUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc, formatter.NewFactory(), validator.NewValidator(config.FileUploadConfig{})))
	return r
}

func post(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChat_Success(t *testing.T) {
	uc := &fakeChat{res: &entity.ChatResult{Message: "According to a.pdf ...", ToolsUsed: []string{"search_documents"}}}

	rec := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(rec, post("/api/chat", `{"message":"refunds?","documentId":"doc-1","history":[{"role":"user","content":"hi","extra":1}]}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"According to a.pdf ...","toolsUsed":["search_documents"]}`, rec.Body.String())
	require.NotNil(t, uc.got)
	assert.Equal(t, "doc-1", uc.got.DocumentID)
	assert.Equal(t, []entity.HistoryMessage{{Role: "user", Content: "hi"}}, uc.got.History)
}

func TestChat_NoToolsSerializesEmptyList(t *testing.T) {
	uc := &fakeChat{res: &entity.ChatResult{Message: "Hello"}}

	rec := httptest.NewRecorder()
	newRouter(uc).ServeHTTP(rec, post("/api/chat", `{"message":"hello","documentId":"doc-1"}`))

	assert.JSONEq(t, `{"success":true,"message":"Hello","toolsUsed":[]}`, rec.Body.String())
}

func TestChat_Validation(t *testing.T) {
	for _, body := range []string{
		`{"message":"","documentId":"doc-1"}`,
		`{"message":"hi"}`,
		`{"message":"   ","documentId":"doc-1"}`,
	} {
		uc := &fakeChat{}
		rec := httptest.NewRecorder()
		newRouter(uc).ServeHTTP(rec, post("/api/chat", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"success":false,"error":"message & documentId required"}`, rec.Body.String())
		assert.Nil(t, uc.got)
	}

	rec := httptest.NewRecorder()
	newRouter(&fakeChat{}).ServeHTTP(rec, post("/api/chat", `{not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_UsecaseErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: 503 upstream", entity.ErrModelProvider), http.StatusInternalServerError},
		{entity.ErrModelProtocol, http.StatusInternalServerError},
		{entity.ErrDocumentNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		newRouter(&fakeChat{err: tt.err}).ServeHTTP(rec, post("/api/chat", `{"message":"hi","documentId":"doc-1"}`))

		assert.Equal(t, tt.status, rec.Code)
		assert.NotContains(t, rec.Body.String(), "upstream")
		assert.Contains(t, rec.Body.String(), `"success":false`)
	}
}

func TestExport_Markdown(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeChat{}).ServeHTTP(rec, post("/api/chat/export",
		`{"format":"markdown","history":[{"role":"user","content":"Q"},{"role":"assistant","content":"A"}]}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="chat-transcript.md"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "**User:**\n\nQ")
	assert.Contains(t, rec.Body.String(), "**Assistant:**\n\nA")
}

func TestExport_PDF(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeChat{}).ServeHTTP(rec, post("/api/chat/export", `{"format":"pdf","history":[{"role":"user","content":"Q"}]}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestExport_Validation(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeChat{}).ServeHTTP(rec, post("/api/chat/export", `{"format":"odt","history":[{"role":"user","content":"Q"}]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"format must be markdown, docx or pdf"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newRouter(&fakeChat{}).ServeHTTP(rec, post("/api/chat/export", `{"format":"pdf","history":[]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"history required"}`, rec.Body.String())
}
