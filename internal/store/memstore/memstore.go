// Package memstore is an in-memory implementation of store.{Library,
// Document,Chunk}Store, grounded in the teacher's internal/storage.Manager
// mutex-guarded map idiom. It backs the service-layer and property tests so
// they don't require a live Postgres instance; internal/store/postgres
// implements the same interfaces against a real database for production.
package memstore

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CharbelDaher34/stackvec/internal/apperr"
	"github.com/CharbelDaher34/stackvec/internal/model"
)

// Store holds libraries, documents and chunks behind a single mutex. A
// single coarse lock is sufficient here because cascading deletes must see
// a consistent view across all three maps; splitting it further would only
// reintroduce the cross-entity ordering problems spec §5 warns about in the
// index layer.
type Store struct {
	mu sync.RWMutex

	libraries map[uuid.UUID]model.Library
	documents map[uuid.UUID]model.Document
	chunks    map[uuid.UUID]model.Chunk
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		libraries: make(map[uuid.UUID]model.Library),
		documents: make(map[uuid.UUID]model.Document),
		chunks:    make(map[uuid.UUID]model.Chunk),
	}
}

// --- libraries ---

func (s *Store) CreateLibrary(_ context.Context, lib model.LibraryCreate) (model.Library, error) {
	if lib.Name == "" {
		return model.Library{}, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	record := model.Library{
		ID:             uuid.New(),
		Name:           lib.Name,
		WrittenBy:      lib.WrittenBy,
		Description:    lib.Description,
		ProductionDate: lib.ProductionDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.libraries[record.ID] = record
	return record, nil
}

func (s *Store) GetLibrary(_ context.Context, id uuid.UUID) (model.Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lib, ok := s.libraries[id]
	if !ok {
		return model.Library{}, fmt.Errorf("%w: library %s", apperr.ErrNotFound, id)
	}
	return lib, nil
}

func (s *Store) ListLibraries(_ context.Context, skip, limit int) ([]model.Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Library, 0, len(s.libraries))
	for _, lib := range s.libraries {
		out = append(out, lib)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, skip, limit), nil
}

func (s *Store) UpdateLibrary(_ context.Context, id uuid.UUID, update model.LibraryCreate) (model.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, ok := s.libraries[id]
	if !ok {
		return model.Library{}, fmt.Errorf("%w: library %s", apperr.ErrNotFound, id)
	}

	lib.Name = update.Name
	lib.WrittenBy = update.WrittenBy
	lib.Description = update.Description
	lib.ProductionDate = update.ProductionDate
	lib.UpdatedAt = time.Now().UTC()
	s.libraries[id] = lib
	return lib, nil
}

// DeleteLibrary removes the library and cascades to its documents and
// chunks, returning every removed chunk id (spec §4.5).
func (s *Store) DeleteLibrary(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.libraries[id]; !ok {
		return nil, fmt.Errorf("%w: library %s", apperr.ErrNotFound, id)
	}

	var removedChunks []uuid.UUID
	for docID, doc := range s.documents {
		if doc.LibraryID != id {
			continue
		}
		for chunkID, chunk := range s.chunks {
			if chunk.DocumentID == docID {
				removedChunks = append(removedChunks, chunkID)
				delete(s.chunks, chunkID)
			}
		}
		delete(s.documents, docID)
	}
	delete(s.libraries, id)
	return removedChunks, nil
}

// --- documents ---

func (s *Store) CreateDocument(_ context.Context, doc model.DocumentCreate) (model.Document, error) {
	if doc.Name == "" {
		return model.Document{}, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.libraries[doc.LibraryID]; !ok {
		return model.Document{}, fmt.Errorf("%w: library %s", apperr.ErrForeignKeyMissing, doc.LibraryID)
	}

	now := time.Now().UTC()
	record := model.Document{
		ID:        uuid.New(),
		LibraryID: doc.LibraryID,
		Name:      doc.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.documents[record.ID] = record
	return record, nil
}

func (s *Store) GetDocument(_ context.Context, id uuid.UUID) (model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return model.Document{}, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id)
	}
	return doc, nil
}

func (s *Store) ListDocumentsByLibrary(_ context.Context, libraryID uuid.UUID, skip, limit int) ([]model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Document
	for _, doc := range s.documents {
		if doc.LibraryID == libraryID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, skip, limit), nil
}

func (s *Store) UpdateDocument(_ context.Context, id uuid.UUID, update model.DocumentCreate) (model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return model.Document{}, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id)
	}
	doc.Name = update.Name
	doc.UpdatedAt = time.Now().UTC()
	s.documents[id] = doc
	return doc, nil
}

func (s *Store) DeleteDocument(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return nil, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id)
	}

	var removedChunks []uuid.UUID
	for chunkID, chunk := range s.chunks {
		if chunk.DocumentID == id {
			removedChunks = append(removedChunks, chunkID)
			delete(s.chunks, chunkID)
		}
	}
	delete(s.documents, id)
	return removedChunks, nil
}

func (s *Store) DeleteDocumentsByLibrary(_ context.Context, libraryID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removedChunks []uuid.UUID
	for docID, doc := range s.documents {
		if doc.LibraryID != libraryID {
			continue
		}
		for chunkID, chunk := range s.chunks {
			if chunk.DocumentID == docID {
				removedChunks = append(removedChunks, chunkID)
				delete(s.chunks, chunkID)
			}
		}
		delete(s.documents, docID)
	}
	return removedChunks, nil
}

func (s *Store) RandomDocumentID(_ context.Context) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id := range s.documents {
		return id, nil
	}
	return uuid.UUID{}, fmt.Errorf("%w: no documents exist", apperr.ErrNotFound)
}

// --- chunks ---

func (s *Store) CreateChunk(_ context.Context, chunk model.Chunk) (model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[chunk.DocumentID]; !ok {
		return model.Chunk{}, fmt.Errorf("%w: document %s", apperr.ErrForeignKeyMissing, chunk.DocumentID)
	}

	now := time.Now().UTC()
	chunk.ID = uuid.New()
	chunk.CreatedAt = now
	chunk.UpdatedAt = now
	s.chunks[chunk.ID] = chunk
	return chunk, nil
}

func (s *Store) GetChunk(_ context.Context, id uuid.UUID) (model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[id]
	if !ok {
		return model.Chunk{}, fmt.Errorf("%w: chunk %s", apperr.ErrNotFound, id)
	}
	return chunk, nil
}

func (s *Store) ListChunksByDocument(_ context.Context, documentID uuid.UUID, skip, limit int) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Chunk
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			out = append(out, chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, skip, limit), nil
}

func (s *Store) UpdateChunk(_ context.Context, chunk model.Chunk) (model.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.chunks[chunk.ID]
	if !ok {
		return model.Chunk{}, fmt.Errorf("%w: chunk %s", apperr.ErrNotFound, chunk.ID)
	}
	existing.Text = chunk.Text
	existing.Embedding = chunk.Embedding
	existing.UpdatedAt = time.Now().UTC()
	s.chunks[chunk.ID] = existing
	return existing, nil
}

func (s *Store) DeleteChunk(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chunks[id]; !ok {
		return false, nil
	}
	delete(s.chunks, id)
	return true, nil
}

func (s *Store) DeleteChunksByDocument(_ context.Context, documentID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []uuid.UUID
	for chunkID, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			removed = append(removed, chunkID)
			delete(s.chunks, chunkID)
		}
	}
	return removed, nil
}

func (s *Store) DeleteChunksByLibrary(_ context.Context, libraryID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docIDs := make(map[uuid.UUID]bool)
	for docID, doc := range s.documents {
		if doc.LibraryID == libraryID {
			docIDs[docID] = true
		}
	}

	var removed []uuid.UUID
	for chunkID, chunk := range s.chunks {
		if docIDs[chunk.DocumentID] {
			removed = append(removed, chunkID)
			delete(s.chunks, chunkID)
		}
	}
	return removed, nil
}

// ListAllChunks streams a snapshot of every chunk taken under the read
// lock. When forIndexing is true only ID and Embedding are guaranteed
// populated (spec §6), though this in-memory implementation always has the
// full record available.
func (s *Store) ListAllChunks(_ context.Context, forIndexing bool) iter.Seq[model.Chunk] {
	s.mu.RLock()
	snapshot := make([]model.Chunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		if forIndexing {
			snapshot = append(snapshot, model.Chunk{ID: chunk.ID, Embedding: chunk.Embedding})
		} else {
			snapshot = append(snapshot, chunk)
		}
	}
	s.mu.RUnlock()

	return func(yield func(model.Chunk) bool) {
		for _, chunk := range snapshot {
			if !yield(chunk) {
				return
			}
		}
	}
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}
