package entity

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
)

type ContentType string

const (
	ContentTypePDF  ContentType = "pdf"
	ContentTypeDOCX ContentType = "docx"
)

// ContentTypeFromFilename maps a file extension onto a supported content type.
func ContentTypeFromFilename(filename string) (ContentType, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ContentTypePDF, true
	case ".docx":
		return ContentTypeDOCX, true
	default:
		return "", false
	}
}

// Document is an ingested file. Immutable after creation.
type Document struct {
	ID                string
	Filename          string
	ContentType       ContentType
	StorageRef        string
	EmbeddingStrategy string
	Dimensions        int
	CreatedAt         time.Time
}

// Chunk is a window of document text together with its embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Text       string
	Embedding  []float32
}

// TextChunk is the chunker output before embedding.
type TextChunk struct {
	Index int
	Text  string
}

// Embeddings is a batch of vectors produced by one strategy.
type Embeddings struct {
	Vectors  [][]float32
	Strategy string
}

// Vector is a single embedding tagged with its strategy.
type Vector struct {
	Values   []float32
	Strategy string
}

// ChunkMatch is a chunk returned by a document-scoped query.
// Similarity is nil for unranked fallback results.
type ChunkMatch struct {
	Chunk      Chunk
	Similarity *float64
}

// SearchResult is the outcome of a document search.
type SearchResult struct {
	Document *Document
	Matches  []ChunkMatch
	Fallback bool
}

// UploadRequest carries a single uploaded file into the ingestion pipeline.
type UploadRequest struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// IngestResult describes the outcome of an upload.
type IngestResult struct {
	DocumentID string
	Filename   string
	ChunkCount int
	Skipped    bool
}
