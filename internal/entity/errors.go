package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrMissingField     = fmt.Errorf("%w: required field is missing", ErrValidation)
	ErrInvalidFormat    = fmt.Errorf("%w: invalid format", ErrValidation)
	ErrInvalidExtension = fmt.Errorf("%w: invalid file extension", ErrValidation)
	ErrFileTooLarge     = fmt.Errorf("%w: file too large", ErrValidation)

	// Configuration errors
	ErrConfiguration = errors.New("invalid configuration")

	// Extraction errors
	ErrExtraction    = errors.New("text extraction failed")
	ErrEmptyDocument = fmt.Errorf("%w: no text could be extracted from the document", ErrExtraction)

	// Embedding errors
	ErrEmbeddingProvider = errors.New("embedding provider error")
	ErrStrategyMismatch  = errors.New("embedding strategy mismatch")

	// Store errors
	ErrStore            = errors.New("document store error")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")

	// Tool and model errors
	ErrToolExecution = errors.New("tool execution failed")
	ErrModelProtocol = errors.New("model protocol error")
	ErrModelProvider = errors.New("language model provider error")

	// Export errors
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrValidation)
)

// Ingestion stages reported by StageError
const (
	StageValidate  = "validate"
	StageStoreFile = "store_file"
	StageExtract   = "extract"
	StageChunk     = "chunk"
	StageEmbed     = "embed"
	StagePersist   = "persist"
)

// StageError ties an ingestion failure to the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage name; nil stays nil.
func NewStageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, if any.
func StageOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
