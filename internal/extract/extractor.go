// Package extract turns uploaded PDF and DOCX files into plain text.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const minPDFTextLength = 10

var errScannedPDF = fmt.Errorf("%w: PDF appears to be empty or image-based (scanned PDF)", entity.ErrExtraction)

// Extractor dispatches on the file extension.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns sanitized text of a pdf or docx file.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	contentType, ok := entity.ContentTypeFromFilename(filename)
	if !ok {
		return "", fmt.Errorf("%w: %s", entity.ErrInvalidExtension, filename)
	}

	var (
		text string
		err  error
	)

	switch contentType {
	case entity.ContentTypePDF:
		text, err = extractPDF(data)
		if err != nil {
			return "", err
		}
		text = Sanitize(text)
		if utf8.RuneCountInString(text) < minPDFTextLength {
			return "", errScannedPDF
		}
	case entity.ContentTypeDOCX:
		text, err = extractDOCX(data)
		if err != nil {
			return "", err
		}
		text = Sanitize(text)
	}

	if text == "" {
		return "", entity.ErrEmptyDocument
	}

	ctxzap.Debug(ctx, "text extracted",
		zap.String("filename", filename),
		zap.String("content_type", string(contentType)),
		zap.Int("runes", utf8.RuneCountInString(text)),
	)

	return text, nil
}

// Sanitize drops NUL and non-whitespace control characters that Postgres text rejects.
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			sb.WriteRune(r)
		case r < 0x20 || r == 0x7f:
		case r == utf8.RuneError:
		default:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
