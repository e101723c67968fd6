package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPDF(t *testing.T, lines ...string) []byte {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	for _, line := range lines {
		doc.Cell(0, 10, line)
		doc.Ln(10)
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":   documentXML,
	}
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

const docxTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>%s</w:body>
</w:document>`

func TestExtract_PDF(t *testing.T) {
	data := buildPDF(t, "Refund policy: thirty days", "Contact support for help")

	text, err := NewExtractor().Extract(context.Background(), "policy.pdf", data)
	require.NoError(t, err)
	assert.Contains(t, text, "Refund policy")
	assert.Contains(t, text, "Contact support")
}

func TestExtract_PDFWithoutText(t *testing.T) {
	data := buildPDF(t)

	_, err := NewExtractor().Extract(context.Background(), "scan.PDF", data)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrExtraction)
}

func TestExtract_CorruptPDF(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "broken.pdf", []byte("not a pdf at all"))
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrExtraction)
}

func TestExtract_DOCX(t *testing.T) {
	body := `<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Second </w:t></w:r><w:r><w:t>paragraph</w:t><w:tab/><w:t>tabbed</w:t></w:r></w:p>`
	data := buildDOCX(t, sprintfDocument(body))

	text, err := NewExtractor().Extract(context.Background(), "notes.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph\ttabbed", text)
}

func TestExtract_EmptyDOCX(t *testing.T) {
	data := buildDOCX(t, sprintfDocument(`<w:p></w:p>`))

	_, err := NewExtractor().Extract(context.Background(), "empty.docx", data)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrEmptyDocument)
}

func TestExtract_OversizedDOCX(t *testing.T) {
	saved := maxDocumentXMLSize
	maxDocumentXMLSize = 1 << 10
	t.Cleanup(func() { maxDocumentXMLSize = saved })

	body := strings.Repeat(`<w:p><w:r><w:t>aaaaaaaaaaaaaaaa</w:t></w:r></w:p>`, 1000)
	data := buildDOCX(t, sprintfDocument(body))

	_, err := NewExtractor().Extract(context.Background(), "bomb.docx", data)
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrExtraction)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestParseDocumentXML_LimitedReaderStopsEarly(t *testing.T) {
	body := strings.Repeat(`<w:p><w:r><w:t>aaaaaaaaaaaaaaaa</w:t></w:r></w:p>`, 1000)
	limited := &io.LimitedReader{R: strings.NewReader(sprintfDocument(body)), N: 1 << 10}

	_, err := parseDocumentXML(limited)
	assert.ErrorIs(t, err, entity.ErrExtraction)
	assert.LessOrEqual(t, limited.N, int64(0))
}

func TestExtract_DOCXNotZip(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "bad.docx", []byte("plain text"))
	assert.ErrorIs(t, err, entity.ErrExtraction)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, entity.ErrInvalidExtension)
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "nul bytes", in: "a\x00b", want: "ab"},
		{name: "keeps whitespace", in: "a\tb\nc\r\nd", want: "a\tb\nc\r\nd"},
		{name: "drops controls", in: "a\x01\x02b\x7f", want: "ab"},
		{name: "trims", in: "  text \n", want: "text"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func sprintfDocument(body string) string {
	return fmt.Sprintf(docxTemplate, body)
}
