package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/futig/rag-assistant/internal/entity"
)

const documentXMLPath = "word/document.xml"

// maxDocumentXMLSize bounds the decompressed body of a DOCX.
var maxDocumentXMLSize int64 = 64 << 20

func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %v", entity.ErrExtraction, err)
	}

	for _, file := range archive.File {
		if file.Name != documentXMLPath {
			continue
		}

		if file.UncompressedSize64 > uint64(maxDocumentXMLSize) {
			return "", errDocumentXMLTooLarge()
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: open %s: %v", entity.ErrExtraction, documentXMLPath, err)
		}
		defer rc.Close()

		// the header size is not trusted
		limited := &io.LimitedReader{R: rc, N: maxDocumentXMLSize + 1}
		text, err := parseDocumentXML(limited)
		if limited.N <= 0 {
			return "", errDocumentXMLTooLarge()
		}
		return text, err
	}

	return "", fmt.Errorf("%w: %s not found", entity.ErrExtraction, documentXMLPath)
}

func errDocumentXMLTooLarge() error {
	return fmt.Errorf("%w: %s exceeds %d bytes", entity.ErrExtraction, documentXMLPath, maxDocumentXMLSize)
}

// parseDocumentXML walks w:p / w:r / w:t elements, one line per paragraph.
func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		sb     strings.Builder
		inText bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: parse %s: %v", entity.ErrExtraction, documentXMLPath, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}

	return sb.String(), nil
}
