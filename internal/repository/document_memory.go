package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
)

// DocumentMemory is an in-process DocumentStore with the same semantics as
// DocumentPostgres. Contents are lost on restart.
type DocumentMemory struct {
	mu         sync.RWMutex
	documents  map[string]*entity.Document
	byFilename map[string]string
	chunks     map[string][]entity.Chunk
	now        func() time.Time
}

func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{
		documents:  make(map[string]*entity.Document),
		byFilename: make(map[string]string),
		chunks:     make(map[string][]entity.Chunk),
		now:        time.Now,
	}
}

func (r *DocumentMemory) InsertDocument(_ context.Context, doc *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertDocumentLocked(doc)
}

func (r *DocumentMemory) InsertChunks(_ context.Context, chunks []entity.Chunk, strategy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertChunksLocked(chunks, strategy)
}

func (r *DocumentMemory) SaveDocument(_ context.Context, doc *entity.Document, chunks []entity.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, chunk := range chunks {
		if chunk.DocumentID != doc.ID {
			return fmt.Errorf("%w: chunk %d belongs to %s", entity.ErrStore, chunk.Index, chunk.DocumentID)
		}
	}

	if err := r.insertDocumentLocked(doc); err != nil {
		return err
	}
	if err := r.insertChunksLocked(chunks, doc.EmbeddingStrategy); err != nil {
		// undo the document so a failed save leaves nothing behind
		delete(r.documents, doc.ID)
		delete(r.byFilename, doc.Filename)
		delete(r.chunks, doc.ID)
		return err
	}

	return nil
}

func (r *DocumentMemory) insertDocumentLocked(doc *entity.Document) error {
	if _, ok := r.byFilename[doc.Filename]; ok {
		return fmt.Errorf("%w: %s", entity.ErrDocumentExists, doc.Filename)
	}
	if _, ok := r.documents[doc.ID]; ok {
		return fmt.Errorf("%w: id %s", entity.ErrDocumentExists, doc.ID)
	}

	doc.CreatedAt = r.now()
	stored := *doc
	r.documents[doc.ID] = &stored
	r.byFilename[doc.Filename] = doc.ID

	return nil
}

func (r *DocumentMemory) insertChunksLocked(chunks []entity.Chunk, strategy string) error {
	pending := make(map[string]map[int]struct{})
	for _, chunk := range chunks {
		doc, ok := r.documents[chunk.DocumentID]
		if !ok {
			return fmt.Errorf("%w: chunk %d references unknown document %s", entity.ErrStore, chunk.Index, chunk.DocumentID)
		}
		if doc.EmbeddingStrategy != strategy {
			return strategyMismatch(doc, strategy)
		}

		seen, ok := pending[chunk.DocumentID]
		if !ok {
			seen = make(map[int]struct{})
			for _, existing := range r.chunks[chunk.DocumentID] {
				seen[existing.Index] = struct{}{}
			}
			pending[chunk.DocumentID] = seen
		}
		if _, dup := seen[chunk.Index]; dup {
			return fmt.Errorf("%w: chunk %d of %s", entity.ErrDocumentExists, chunk.Index, chunk.DocumentID)
		}
		seen[chunk.Index] = struct{}{}
	}

	for _, chunk := range chunks {
		stored := chunk
		stored.Embedding = append([]float32(nil), chunk.Embedding...)
		r.chunks[chunk.DocumentID] = append(r.chunks[chunk.DocumentID], stored)
	}

	return nil
}

func (r *DocumentMemory) GetDocument(_ context.Context, id string) (*entity.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getDocumentLocked(id)
}

func (r *DocumentMemory) getDocumentLocked(id string) (*entity.Document, error) {
	doc, ok := r.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrDocumentNotFound, id)
	}
	out := *doc
	return &out, nil
}

func (r *DocumentMemory) FindByFilename(_ context.Context, filename string) (*entity.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byFilename[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrDocumentNotFound, filename)
	}
	return r.getDocumentLocked(id)
}

func (r *DocumentMemory) ListDocuments(_ context.Context) ([]*entity.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]*entity.Document, 0, len(r.documents))
	for _, doc := range r.documents {
		out := *doc
		docs = append(docs, &out)
	}

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].Filename < docs[j].Filename
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	return docs, nil
}

func (r *DocumentMemory) QueryNearest(
	_ context.Context, documentID string, query *entity.Vector, k int, threshold float64,
) ([]entity.ChunkMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, err := r.getDocumentLocked(documentID)
	if err != nil {
		return nil, err
	}
	if err := checkStrategy(doc, query); err != nil {
		return nil, err
	}

	matches := make([]entity.ChunkMatch, 0)
	for _, chunk := range r.chunks[documentID] {
		similarity := cosineSimilarity(chunk.Embedding, query.Values)
		if similarity < threshold {
			continue
		}
		out := chunk
		out.Embedding = nil
		matches = append(matches, entity.ChunkMatch{Chunk: out, Similarity: &similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return *matches[i].Similarity > *matches[j].Similarity
	})

	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (r *DocumentMemory) FirstChunks(_ context.Context, documentID string, k int) ([]entity.ChunkMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, err := r.getDocumentLocked(documentID); err != nil {
		return nil, err
	}

	chunks := append([]entity.Chunk(nil), r.chunks[documentID]...)
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Index < chunks[j].Index
	})
	if k >= 0 && len(chunks) > k {
		chunks = chunks[:k]
	}

	matches := make([]entity.ChunkMatch, 0, len(chunks))
	for _, chunk := range chunks {
		chunk.Embedding = nil
		matches = append(matches, entity.ChunkMatch{Chunk: chunk})
	}
	return matches, nil
}

func (r *DocumentMemory) CountChunks(_ context.Context, documentID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, err := r.getDocumentLocked(documentID); err != nil {
		return 0, err
	}
	return len(r.chunks[documentID]), nil
}

// cosineSimilarity matches pgvector's 1 - (a <=> b). Mismatched lengths or a
// zero vector yield 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
