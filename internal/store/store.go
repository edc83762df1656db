// Package store defines the relational persistence interface consumed by
// the core (spec §6): CRUD over libraries, documents and chunks, with
// cascade deletes that report the full list of removed chunk ids so the
// IndexManager can stay in sync without re-scanning (spec §4.5).
package store

import (
	"context"
	"iter"

	"github.com/google/uuid"

	"github.com/CharbelDaher34/stackvec/internal/model"
)

// LibraryStore persists libraries and cascades to documents/chunks on
// delete.
type LibraryStore interface {
	CreateLibrary(ctx context.Context, lib model.LibraryCreate) (model.Library, error)
	GetLibrary(ctx context.Context, id uuid.UUID) (model.Library, error)
	ListLibraries(ctx context.Context, skip, limit int) ([]model.Library, error)
	UpdateLibrary(ctx context.Context, id uuid.UUID, update model.LibraryCreate) (model.Library, error)
	// DeleteLibrary removes the library and cascades to its documents and
	// chunks, returning every removed chunk id.
	DeleteLibrary(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}

// DocumentStore persists documents and cascades to chunks on delete.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc model.DocumentCreate) (model.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (model.Document, error)
	ListDocumentsByLibrary(ctx context.Context, libraryID uuid.UUID, skip, limit int) ([]model.Document, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, update model.DocumentCreate) (model.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	// DeleteDocumentsByLibrary cascades to every document under libraryID and
	// their chunks, returning every removed chunk id.
	DeleteDocumentsByLibrary(ctx context.Context, libraryID uuid.UUID) ([]uuid.UUID, error)
	// RandomDocumentID picks an arbitrary existing document, for the
	// load-testing-oriented POST /chunks/random endpoint (spec §6,
	// original_source's get_random_document_id).
	RandomDocumentID(ctx context.Context) (uuid.UUID, error)
}

// ChunkStore is the interface the core consumes (spec §6).
type ChunkStore interface {
	CreateChunk(ctx context.Context, chunk model.Chunk) (model.Chunk, error)
	GetChunk(ctx context.Context, id uuid.UUID) (model.Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID uuid.UUID, skip, limit int) ([]model.Chunk, error)
	UpdateChunk(ctx context.Context, chunk model.Chunk) (model.Chunk, error)
	DeleteChunk(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteChunksByDocument(ctx context.Context, documentID uuid.UUID) ([]uuid.UUID, error)
	DeleteChunksByLibrary(ctx context.Context, libraryID uuid.UUID) ([]uuid.UUID, error)
	// ListAllChunks streams every chunk. When forIndexing is true,
	// implementations need only hydrate (ID, Embedding) — spec §6.
	ListAllChunks(ctx context.Context, forIndexing bool) iter.Seq[model.Chunk]
}
