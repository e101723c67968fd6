package entity

import "time"

type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Stage   string `json:"stage,omitempty"`
}

type UploadResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks,omitempty"`
	ChunkCount int    `json:"chunkCount,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	Message    string `json:"message,omitempty"`
}

type DocumentSummary struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type ListFilesResponse struct {
	Success   bool               `json:"success"`
	Documents []*DocumentSummary `json:"documents"`
}

type DocumentDetail struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListDocumentsResponse struct {
	Success   bool              `json:"success"`
	Documents []*DocumentDetail `json:"documents"`
}

type SearchRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"documentId"`
}

type SearchResultDocument struct {
	Filename string `json:"filename"`
}

type SearchResultItem struct {
	ID         string               `json:"id"`
	ChunkText  string               `json:"chunk_text"`
	DocumentID string               `json:"document_id"`
	Similarity *float64             `json:"similarity,omitempty"`
	Documents  SearchResultDocument `json:"documents"`
}

type SearchResponse struct {
	Success  bool                `json:"success"`
	Results  []*SearchResultItem `json:"results"`
	Fallback bool                `json:"fallback,omitempty"`
}
