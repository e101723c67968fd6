package formatter

import (
	"bytes"
	"os"
	"testing"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transcript = []entity.HistoryMessage{
	{Role: entity.RoleUser, Content: "What is the refund policy?"},
	{Role: entity.RoleAssistant, Content: "According to policy.pdf,\nrefunds take 30 days."},
}

func TestFactory(t *testing.T) {
	f := NewFactory()

	for format, ext := range map[entity.ResultFormat]string{
		entity.FormatMarkdown: ".md",
		entity.FormatDOCX:     ".docx",
		entity.FormatPDF:      ".pdf",
	} {
		fmtr, err := f.Create(format)
		require.NoError(t, err)
		assert.Equal(t, ext, fmtr.FileExtension())
		assert.NotEmpty(t, fmtr.ContentType())
	}

	_, err := f.Create("odt")
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(transcript)
	require.NoError(t, err)

	want := "# Chat transcript\n" +
		"\n**User:**\n\nWhat is the refund policy?\n" +
		"\n**Assistant:**\n\nAccording to policy.pdf,\nrefunds take 30 days.\n"
	assert.Equal(t, want, string(out))
}

func TestPDFFormatter(t *testing.T) {
	out, err := NewPDFFormatter().Format(append(transcript, entity.HistoryMessage{Role: entity.RoleUser, Content: "Café €5"}))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestDOCXFormatter(t *testing.T) {
	key := os.Getenv("UNIDOC_LICENSE_KEY")
	if key == "" {
		t.Skip("UNIDOC_LICENSE_KEY not set")
	}
	require.NoError(t, SetLicenseKey(key))

	out, err := NewDOCXFormatter().Format(transcript)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("PK")))
}

func TestSpeaker(t *testing.T) {
	assert.Equal(t, "User", speaker("user"))
	assert.Equal(t, "Assistant", speaker("assistant"))
	assert.Equal(t, "System", speaker("system"))
	assert.Equal(t, "Unknown", speaker(""))
}
