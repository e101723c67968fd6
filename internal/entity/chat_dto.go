package entity

// HistoryMessage is a prior conversation turn supplied by the caller.
// Decoding into this type drops every field other than role and content.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message    string           `json:"message"`
	History    []HistoryMessage `json:"history"`
	DocumentID string           `json:"documentId"`
}

type ChatResult struct {
	Message   string
	ToolsUsed []string
}

type ChatResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	ToolsUsed []string `json:"toolsUsed"`
}

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

type ExportRequest struct {
	History []HistoryMessage `json:"history"`
	Format  ResultFormat     `json:"format"`
}
