package document

import "github.com/futig/rag-assistant/internal/entity"

const skippedMessage = "Document already exists. Skipping processing."

func toUploadResponse(res *entity.IngestResult) *entity.UploadResponse {
	if res.Skipped {
		return &entity.UploadResponse{
			Success:    true,
			DocumentID: res.DocumentID,
			Filename:   res.Filename,
			Skipped:    true,
			Message:    skippedMessage,
		}
	}

	return &entity.UploadResponse{
		Success:    true,
		DocumentID: res.DocumentID,
		Filename:   res.Filename,
		Chunks:     res.ChunkCount,
		ChunkCount: res.ChunkCount,
	}
}

func toDocumentDetail(d *entity.Document) *entity.DocumentDetail {
	return &entity.DocumentDetail{
		ID:          d.ID,
		Filename:    d.Filename,
		ContentType: string(d.ContentType),
		CreatedAt:   d.CreatedAt,
	}
}
