// Package postgres is the production-grade ChunkStore/DocumentStore/
// LibraryStore implementation: pgx/v5 against Postgres + pgvector, adapted
// from the teacher's internal/vectorstore.Store (same pool/schema/
// pgvector-go idiom, generalized from the teacher's single flat
// document_chunks table to the library→document→chunk hierarchy spec §6
// requires, with ON DELETE CASCADE doing the cascade-delete bookkeeping the
// teacher's DeleteConversation handled by hand).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/CharbelDaher34/stackvec/internal/apperr"
	"github.com/CharbelDaher34/stackvec/internal/model"
)

// Store implements store.LibraryStore, store.DocumentStore and
// store.ChunkStore against a single Postgres database.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
}

// New connects to Postgres and ensures the schema exists.
func New(ctx context.Context, dsn string, maxConns, dimension int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &Store{pool: pool, dimension: dimension}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const statements = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS libraries (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	written_by TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	production_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY,
	library_id UUID NOT NULL REFERENCES libraries(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS documents_library_idx ON documents (library_id);

CREATE TABLE IF NOT EXISTS chunks (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	embedding vector(%[1]d),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS chunks_document_idx ON chunks (document_id);
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(statements, s.dimension))
	return err
}

// --- libraries ---

func (s *Store) CreateLibrary(ctx context.Context, in model.LibraryCreate) (model.Library, error) {
	lib := model.Library{
		ID:             uuid.New(),
		Name:           in.Name,
		WrittenBy:      in.WrittenBy,
		Description:    in.Description,
		ProductionDate: in.ProductionDate,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO libraries (id, name, written_by, description, production_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lib.ID, lib.Name, lib.WrittenBy, lib.Description, lib.ProductionDate, lib.CreatedAt, lib.UpdatedAt)
	if err != nil {
		return model.Library{}, fmt.Errorf("%w: insert library: %v", apperr.ErrStoreFailure, err)
	}
	return lib, nil
}

func (s *Store) GetLibrary(ctx context.Context, id uuid.UUID) (model.Library, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, written_by, description, production_date, created_at, updated_at FROM libraries WHERE id = $1`, id)
	var lib model.Library
	if err := row.Scan(&lib.ID, &lib.Name, &lib.WrittenBy, &lib.Description, &lib.ProductionDate, &lib.CreatedAt, &lib.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return model.Library{}, apperr.ErrNotFound
		}
		return model.Library{}, fmt.Errorf("%w: get library: %v", apperr.ErrStoreFailure, err)
	}
	return lib, nil
}

func (s *Store) ListLibraries(ctx context.Context, skip, limit int) ([]model.Library, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, written_by, description, production_date, created_at, updated_at
		 FROM libraries ORDER BY created_at OFFSET $1 LIMIT $2`, skip, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: list libraries: %v", apperr.ErrStoreFailure, err)
	}
	defer rows.Close()

	var libs []model.Library
	for rows.Next() {
		var lib model.Library
		if err := rows.Scan(&lib.ID, &lib.Name, &lib.WrittenBy, &lib.Description, &lib.ProductionDate, &lib.CreatedAt, &lib.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan library: %v", apperr.ErrStoreFailure, err)
		}
		libs = append(libs, lib)
	}
	return libs, rows.Err()
}

func (s *Store) UpdateLibrary(ctx context.Context, id uuid.UUID, in model.LibraryCreate) (model.Library, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE libraries SET name = $2, written_by = $3, description = $4, production_date = $5, updated_at = $6 WHERE id = $1`,
		id, in.Name, in.WrittenBy, in.Description, in.ProductionDate, now)
	if err != nil {
		return model.Library{}, fmt.Errorf("%w: update library: %v", apperr.ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return model.Library{}, apperr.ErrNotFound
	}
	return s.GetLibrary(ctx, id)
}

// DeleteLibrary removes the library; ON DELETE CASCADE removes its
// documents and chunks. The chunk ids are collected first so the
// IndexManager can be told what to drop.
func (s *Store) DeleteLibrary(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id FROM chunks c JOIN documents d ON c.document_id = d.id WHERE d.library_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: collect chunk ids: %v", apperr.ErrStoreFailure, err)
	}
	ids, err := scanUUIDs(rows)
	if err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM libraries WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: delete library: %v", apperr.ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrNotFound
	}
	return ids, nil
}

// --- documents ---

func (s *Store) CreateDocument(ctx context.Context, in model.DocumentCreate) (model.Document, error) {
	doc := model.Document{
		ID:        uuid.New(),
		LibraryID: in.LibraryID,
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, library_id, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.LibraryID, doc.Name, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Document{}, apperr.ErrForeignKeyMissing
		}
		return model.Document{}, fmt.Errorf("%w: insert document: %v", apperr.ErrStoreFailure, err)
	}
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (model.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, library_id, name, created_at, updated_at FROM documents WHERE id = $1`, id)
	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.LibraryID, &doc.Name, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return model.Document{}, apperr.ErrNotFound
		}
		return model.Document{}, fmt.Errorf("%w: get document: %v", apperr.ErrStoreFailure, err)
	}
	return doc, nil
}

func (s *Store) ListDocumentsByLibrary(ctx context.Context, libraryID uuid.UUID, skip, limit int) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, library_id, name, created_at, updated_at FROM documents
		 WHERE library_id = $1 ORDER BY created_at OFFSET $2 LIMIT $3`, libraryID, skip, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", apperr.ErrStoreFailure, err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.LibraryID, &doc.Name, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", apperr.ErrStoreFailure, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) UpdateDocument(ctx context.Context, id uuid.UUID, in model.DocumentCreate) (model.Document, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `UPDATE documents SET name = $2, updated_at = $3 WHERE id = $1`, id, in.Name, now)
	if err != nil {
		return model.Document{}, fmt.Errorf("%w: update document: %v", apperr.ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return model.Document{}, apperr.ErrNotFound
	}
	return s.GetDocument(ctx, id)
}

func (s *Store) DeleteDocument(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM chunks WHERE document_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: collect chunk ids: %v", apperr.ErrStoreFailure, err)
	}
	ids, err := scanUUIDs(rows)
	if err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("%w: delete document: %v", apperr.ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.ErrNotFound
	}
	return ids, nil
}

func (s *Store) DeleteDocumentsByLibrary(ctx context.Context, libraryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id FROM chunks c JOIN documents d ON c.document_id = d.id WHERE d.library_id = $1`, libraryID)
	if err != nil {
		return nil, fmt.Errorf("%w: collect chunk ids: %v", apperr.ErrStoreFailure, err)
	}
	ids, err := scanUUIDs(rows)
	if err != nil {
		return nil, err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE library_id = $1`, libraryID); err != nil {
		return nil, fmt.Errorf("%w: delete documents: %v", apperr.ErrStoreFailure, err)
	}
	return ids, nil
}

func (s *Store) RandomDocumentID(ctx context.Context) (uuid.UUID, error) {
	row := s.pool.QueryRow(ctx, `SELECT id FROM documents ORDER BY random() LIMIT 1`)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return uuid.UUID{}, apperr.ErrNotFound
		}
		return uuid.UUID{}, fmt.Errorf("%w: random document: %v", apperr.ErrStoreFailure, err)
	}
	return id, nil
}

// --- chunks ---

func (s *Store) CreateChunk(ctx context.Context, in model.Chunk) (model.Chunk, error) {
	chunk := model.Chunk{
		ID:         uuid.New(),
		DocumentID: in.DocumentID,
		Text:       in.Text,
		Embedding:  in.Embedding,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chunks (id, document_id, text, embedding, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		chunk.ID, chunk.DocumentID, chunk.Text, pgvector.NewVector(chunk.Embedding), chunk.CreatedAt, chunk.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Chunk{}, apperr.ErrForeignKeyMissing
		}
		return model.Chunk{}, fmt.Errorf("%w: insert chunk: %v", apperr.ErrStoreFailure, err)
	}
	return chunk, nil
}

func (s *Store) GetChunk(ctx context.Context, id uuid.UUID) (model.Chunk, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, document_id, text, embedding, created_at, updated_at FROM chunks WHERE id = $1`, id)
	return scanChunk(row)
}

func (s *Store) ListChunksByDocument(ctx context.Context, documentID uuid.UUID, skip, limit int) ([]model.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, text, embedding, created_at, updated_at FROM chunks
		 WHERE document_id = $1 ORDER BY created_at OFFSET $2 LIMIT $3`, documentID, skip, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: list chunks: %v", apperr.ErrStoreFailure, err)
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		chunk, err := scanChunkRows(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (s *Store) UpdateChunk(ctx context.Context, in model.Chunk) (model.Chunk, error) {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE chunks SET text = $2, embedding = $3, updated_at = $4 WHERE id = $1`,
		in.ID, in.Text, pgvector.NewVector(in.Embedding), now)
	if err != nil {
		return model.Chunk{}, fmt.Errorf("%w: update chunk: %v", apperr.ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return model.Chunk{}, apperr.ErrNotFound
	}
	return s.GetChunk(ctx, in.ID)
}

func (s *Store) DeleteChunk(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("%w: delete chunk: %v", apperr.ErrStoreFailure, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteChunksByDocument(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `DELETE FROM chunks WHERE document_id = $1 RETURNING id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: delete chunks by document: %v", apperr.ErrStoreFailure, err)
	}
	return scanUUIDs(rows)
}

func (s *Store) DeleteChunksByLibrary(ctx context.Context, libraryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`DELETE FROM chunks WHERE document_id IN (SELECT id FROM documents WHERE library_id = $1) RETURNING id`, libraryID)
	if err != nil {
		return nil, fmt.Errorf("%w: delete chunks by library: %v", apperr.ErrStoreFailure, err)
	}
	return scanUUIDs(rows)
}

// ListAllChunks snapshots every chunk at call time into an in-memory slice
// and hands it back as an iterator. forIndexing is ignored: every column of
// every chunk is read and returned.
func (s *Store) ListAllChunks(ctx context.Context, forIndexing bool) iter.Seq[model.Chunk] {
	// forIndexing chunks only need (ID, Embedding) downstream, but a plain
	// SELECT * is cheap enough here and keeps one query shape instead of two.
	_ = forIndexing
	rows, err := s.pool.Query(ctx, `SELECT id, document_id, text, embedding, created_at, updated_at FROM chunks`)
	if err != nil {
		return func(yield func(model.Chunk) bool) {}
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		chunk, err := scanChunkRows(rows)
		if err != nil {
			continue
		}
		chunks = append(chunks, chunk)
	}

	return func(yield func(model.Chunk) bool) {
		for _, c := range chunks {
			if !yield(c) {
				return
			}
		}
	}
}

func limitOrAll(limit int) int {
	if limit <= 0 {
		return 1 << 30
	}
	return limit
}

func scanUUIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan id: %v", apperr.ErrStoreFailure, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (model.Chunk, error) {
	var chunk model.Chunk
	var vec pgvector.Vector
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text, &vec, &chunk.CreatedAt, &chunk.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return model.Chunk{}, apperr.ErrNotFound
		}
		return model.Chunk{}, fmt.Errorf("%w: scan chunk: %v", apperr.ErrStoreFailure, err)
	}
	chunk.Embedding = vec.Slice()
	return chunk, nil
}

func scanChunkRows(rows pgx.Rows) (model.Chunk, error) {
	return scanChunk(rows)
}

// isForeignKeyViolation is the one place this package inspects a concrete
// pgx error type, so callers elsewhere can keep comparing against apperr
// sentinels only.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
