package validator

import (
	"fmt"
	"strings"

	"github.com/futig/rag-assistant/internal/entity"
)

// ValidateChat requires a non-empty message and a document id
func (v *Validator) ValidateChat(req *entity.ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.DocumentID) == "" {
		return fmt.Errorf("%w: message & documentId required", entity.ErrMissingField)
	}
	return nil
}

// ValidateSearch requires a non-empty query and a document id
func (v *Validator) ValidateSearch(req *entity.SearchRequest) error {
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.DocumentID) == "" {
		return fmt.Errorf("%w: query & documentId required", entity.ErrMissingField)
	}
	return nil
}

// ValidateExport checks the transcript and the requested format
func (v *Validator) ValidateExport(req *entity.ExportRequest) error {
	if len(req.History) == 0 {
		return fmt.Errorf("%w: history", entity.ErrMissingField)
	}
	if !req.Format.IsValid() {
		return fmt.Errorf("%w: %q (allowed: markdown, docx, pdf)", entity.ErrUnsupportedFormat, req.Format)
	}
	return nil
}
