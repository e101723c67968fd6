package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	StageFailure(rec, http.StatusUnprocessableEntity, "No text could be extracted from the document", "chunk")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"No text could be extracted from the document","stage":"chunk"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Failure(rec, http.StatusBadRequest, "bad")
	assert.JSONEq(t, `{"success":false,"error":"bad"}`, rec.Body.String())
}

func TestAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	Attachment(rec, "text/markdown; charset=utf-8", "chat-transcript.md", []byte("# hi"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="chat-transcript.md"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, "# hi", rec.Body.String())
}
