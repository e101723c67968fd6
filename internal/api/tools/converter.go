package tools

import "github.com/futig/rag-assistant/internal/entity"

const unknownFilename = "unknown"

func toDocumentSummary(d *entity.Document) *entity.DocumentSummary {
	return &entity.DocumentSummary{
		ID:       d.ID,
		Filename: d.Filename,
	}
}

func toSearchResponse(res *entity.SearchResult) *entity.SearchResponse {
	filename := unknownFilename
	if res.Document != nil && res.Document.Filename != "" {
		filename = res.Document.Filename
	}

	items := make([]*entity.SearchResultItem, 0, len(res.Matches))
	for _, m := range res.Matches {
		items = append(items, &entity.SearchResultItem{
			ID:         m.Chunk.ID,
			ChunkText:  m.Chunk.Text,
			DocumentID: m.Chunk.DocumentID,
			Similarity: m.Similarity,
			Documents:  entity.SearchResultDocument{Filename: filename},
		})
	}

	return &entity.SearchResponse{
		Success:  true,
		Results:  items,
		Fallback: res.Fallback,
	}
}
