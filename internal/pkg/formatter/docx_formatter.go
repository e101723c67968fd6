package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/unidoc/unioffice/common/license"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

// SetLicenseKey registers a metered unioffice key. Without one the library
// refuses to save documents.
func SetLicenseKey(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("set unioffice license: %w", err)
	}
	return nil
}

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(transcript []entity.HistoryMessage) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titleRun := titlePar.AddRun()
	titleRun.AddText(baseTitle)

	for _, msg := range transcript {
		doc.AddParagraph()

		headPar := doc.AddParagraph()
		headRun := headPar.AddRun()
		headRun.Properties().SetBold(true)
		headRun.AddText(speaker(msg.Role))

		bodyPar := doc.AddParagraph()
		bodyRun := bodyPar.AddRun()
		for i, line := range strings.Split(msg.Content, "\n") {
			if i > 0 {
				bodyRun.AddBreak()
			}
			bodyRun.AddText(line)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
