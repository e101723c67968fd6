package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const uniqueViolation = "23505"

const (
	insertDocumentQuery = `
		INSERT INTO documents (id, filename, content_type, storage_ref, embedding_strategy, dimensions)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (filename) DO NOTHING
		RETURNING created_at`

	insertChunkQuery = `
		INSERT INTO document_chunks (id, document_id, chunk_index, chunk_text, embedding, embedding_strategy)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectDocumentColumns = `id, filename, content_type, storage_ref, embedding_strategy, dimensions, created_at`

	queryNearestQuery = `
		SELECT id, chunk_index, chunk_text, 1 - (embedding <=> $2) AS similarity
		FROM document_chunks
		WHERE document_id = $1
		  AND embedding_strategy = $3
		  AND 1 - (embedding <=> $2) >= $4
		ORDER BY embedding <=> $2
		LIMIT $5`

	firstChunksQuery = `
		SELECT id, chunk_index, chunk_text
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index
		LIMIT $2`
)

// DocumentPostgres implements DocumentStore on PostgreSQL with pgvector
type DocumentPostgres struct {
	db *pgxpool.Pool
}

func NewDocumentPostgres(db *pgxpool.Pool) *DocumentPostgres {
	return &DocumentPostgres{
		db: db,
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *DocumentPostgres) InsertDocument(ctx context.Context, doc *entity.Document) error {
	return insertDocument(ctx, r.db, doc)
}

// InsertChunks stores chunks of already persisted documents in one
// transaction. Every target document must carry strategy.
func (r *DocumentPostgres) InsertChunks(ctx context.Context, chunks []entity.Chunk, strategy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", entity.ErrStore, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	checked := make(map[string]struct{})
	for _, chunk := range chunks {
		if _, ok := checked[chunk.DocumentID]; ok {
			continue
		}
		if err := lockDocumentStrategy(ctx, tx, chunk.DocumentID, strategy); err != nil {
			return err
		}
		checked[chunk.DocumentID] = struct{}{}
	}

	if err := insertChunks(ctx, tx, chunks, strategy); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", entity.ErrStore, err)
	}

	return nil
}

// lockDocumentStrategy holds the document row for the transaction and
// rejects chunks embedded with a different strategy.
func lockDocumentStrategy(ctx context.Context, q querier, documentID, strategy string) error {
	id, err := uuid.Parse(documentID)
	if err != nil {
		return fmt.Errorf("%w: parse document ID: %v", entity.ErrStore, err)
	}

	doc, err := scanDocument(q.QueryRow(ctx,
		`SELECT `+selectDocumentColumns+` FROM documents WHERE id = $1 FOR SHARE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: chunks reference unknown document %s", entity.ErrStore, documentID)
		}
		return fmt.Errorf("%w: lock document: %v", entity.ErrStore, err)
	}

	if doc.EmbeddingStrategy != strategy {
		return strategyMismatch(doc, strategy)
	}
	return nil
}

func (r *DocumentPostgres) SaveDocument(ctx context.Context, doc *entity.Document, chunks []entity.Chunk) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", entity.ErrStore, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertDocument(ctx, tx, doc); err != nil {
		return err
	}

	if err := insertChunks(ctx, tx, chunks, doc.EmbeddingStrategy); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", entity.ErrStore, err)
	}

	return nil
}

func insertDocument(ctx context.Context, q querier, doc *entity.Document) error {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return fmt.Errorf("%w: parse document ID: %v", entity.ErrStore, err)
	}

	err = q.QueryRow(ctx, insertDocumentQuery,
		id, doc.Filename, string(doc.ContentType), doc.StorageRef, doc.EmbeddingStrategy, doc.Dimensions,
	).Scan(&doc.CreatedAt)
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", entity.ErrDocumentExists, doc.Filename)
		}
		return fmt.Errorf("%w: insert document: %v", entity.ErrStore, err)
	}

	return nil
}

func insertChunks(ctx context.Context, q querier, chunks []entity.Chunk, strategy string) error {
	for _, chunk := range chunks {
		chunkID, err := uuid.Parse(chunk.ID)
		if err != nil {
			return fmt.Errorf("%w: parse chunk ID: %v", entity.ErrStore, err)
		}
		documentID, err := uuid.Parse(chunk.DocumentID)
		if err != nil {
			return fmt.Errorf("%w: parse document ID: %v", entity.ErrStore, err)
		}

		_, err = q.Exec(ctx, insertChunkQuery,
			chunkID, documentID, chunk.Index, chunk.Text, pgvector.NewVector(chunk.Embedding), strategy,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: chunk %d of %s", entity.ErrDocumentExists, chunk.Index, chunk.DocumentID)
			}
			return fmt.Errorf("%w: insert chunk %d: %v", entity.ErrStore, chunk.Index, err)
		}
	}

	return nil
}

func (r *DocumentPostgres) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	docID, err := uuid.Parse(id)
	if err != nil {
		// a malformed id can never match a stored document
		return nil, fmt.Errorf("%w: %s", entity.ErrDocumentNotFound, id)
	}

	doc, err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+selectDocumentColumns+` FROM documents WHERE id = $1`, docID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", entity.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("%w: get document: %v", entity.ErrStore, err)
	}

	return doc, nil
}

func (r *DocumentPostgres) FindByFilename(ctx context.Context, filename string) (*entity.Document, error) {
	doc, err := scanDocument(r.db.QueryRow(ctx,
		`SELECT `+selectDocumentColumns+` FROM documents WHERE filename = $1`, filename))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", entity.ErrDocumentNotFound, filename)
		}
		return nil, fmt.Errorf("%w: find document: %v", entity.ErrStore, err)
	}

	return doc, nil
}

func (r *DocumentPostgres) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	rows, err := r.db.Query(ctx, `SELECT `+selectDocumentColumns+` FROM documents ORDER BY created_at, filename`)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", entity.ErrStore, err)
	}
	defer rows.Close()

	docs := make([]*entity.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", entity.ErrStore, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", entity.ErrStore, err)
	}

	return docs, nil
}

func (r *DocumentPostgres) QueryNearest(
	ctx context.Context, documentID string, query *entity.Vector, k int, threshold float64,
) ([]entity.ChunkMatch, error) {
	doc, err := r.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := checkStrategy(doc, query); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, queryNearestQuery,
		uuid.MustParse(doc.ID), pgvector.NewVector(query.Values), doc.EmbeddingStrategy, threshold, k,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query nearest: %v", entity.ErrStore, err)
	}
	defer rows.Close()

	matches := make([]entity.ChunkMatch, 0, k)
	for rows.Next() {
		var (
			id         uuid.UUID
			similarity float64
			chunk      = entity.Chunk{DocumentID: doc.ID}
		)
		if err := rows.Scan(&id, &chunk.Index, &chunk.Text, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scan chunk: %v", entity.ErrStore, err)
		}
		chunk.ID = id.String()
		matches = append(matches, entity.ChunkMatch{Chunk: chunk, Similarity: &similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query nearest: %v", entity.ErrStore, err)
	}

	return matches, nil
}

func (r *DocumentPostgres) FirstChunks(ctx context.Context, documentID string, k int) ([]entity.ChunkMatch, error) {
	doc, err := r.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, firstChunksQuery, uuid.MustParse(doc.ID), k)
	if err != nil {
		return nil, fmt.Errorf("%w: first chunks: %v", entity.ErrStore, err)
	}
	defer rows.Close()

	matches := make([]entity.ChunkMatch, 0, k)
	for rows.Next() {
		var (
			id    uuid.UUID
			chunk = entity.Chunk{DocumentID: doc.ID}
		)
		if err := rows.Scan(&id, &chunk.Index, &chunk.Text); err != nil {
			return nil, fmt.Errorf("%w: scan chunk: %v", entity.ErrStore, err)
		}
		chunk.ID = id.String()
		matches = append(matches, entity.ChunkMatch{Chunk: chunk})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: first chunks: %v", entity.ErrStore, err)
	}

	return matches, nil
}

func (r *DocumentPostgres) CountChunks(ctx context.Context, documentID string) (int, error) {
	doc, err := r.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.QueryRow(ctx, `SELECT count(*) FROM document_chunks WHERE document_id = $1`,
		uuid.MustParse(doc.ID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", entity.ErrStore, err)
	}

	return count, nil
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		id          uuid.UUID
		contentType string
		doc         entity.Document
	)

	err := row.Scan(&id, &doc.Filename, &contentType, &doc.StorageRef, &doc.EmbeddingStrategy, &doc.Dimensions, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}

	doc.ID = id.String()
	doc.ContentType = entity.ContentType(contentType)
	return &doc, nil
}

func checkStrategy(doc *entity.Document, query *entity.Vector) error {
	if query.Strategy != doc.EmbeddingStrategy {
		return strategyMismatch(doc, query.Strategy)
	}
	return nil
}

func strategyMismatch(doc *entity.Document, strategy string) error {
	return fmt.Errorf("%w: document %s uses %q, got %q",
		entity.ErrStrategyMismatch, doc.ID, doc.EmbeddingStrategy, strategy)
}
