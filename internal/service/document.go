package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CharbelDaher34/stackvec/internal/indexmanager"
	"github.com/CharbelDaher34/stackvec/internal/model"
	"github.com/CharbelDaher34/stackvec/internal/store"
)

// DocumentService wraps a DocumentStore and propagates cascade deletes to
// the IndexManager (spec §4.5 table, rows "Delete Document(d)").
type DocumentService struct {
	store   store.DocumentStore
	indices *indexmanager.Manager
	log     zerolog.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(s store.DocumentStore, indices *indexmanager.Manager, log zerolog.Logger) *DocumentService {
	return &DocumentService{store: s, indices: indices, log: log}
}

func (s *DocumentService) Create(ctx context.Context, in model.DocumentCreate) (model.Document, error) {
	return s.store.CreateDocument(ctx, in)
}

func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (model.Document, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *DocumentService) ListByLibrary(ctx context.Context, libraryID uuid.UUID, skip, limit int) ([]model.Document, error) {
	return s.store.ListDocumentsByLibrary(ctx, libraryID, skip, limit)
}

func (s *DocumentService) Update(ctx context.Context, id uuid.UUID, in model.DocumentCreate) (model.Document, error) {
	return s.store.UpdateDocument(ctx, id, in)
}

// Delete removes the document and every chunk beneath it, then deletes each
// affected chunk's vector from every index.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) (int, error) {
	removedChunkIDs, err := s.store.DeleteDocument(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, chunkID := range removedChunkIDs {
		s.indices.DeleteVector(chunkID)
	}
	return len(removedChunkIDs), nil
}

// DeleteByLibrary removes every document under libraryID (and their
// chunks), returning a human-readable summary message in the shape spec §8
// scenario 4 expects ("...N chunks and M documents...").
func (s *DocumentService) DeleteByLibrary(ctx context.Context, libraryID uuid.UUID) (string, error) {
	docs, err := s.store.ListDocumentsByLibrary(ctx, libraryID, 0, 0)
	if err != nil {
		docs = nil
	}
	removedChunkIDs, err := s.store.DeleteDocumentsByLibrary(ctx, libraryID)
	if err != nil {
		return "", err
	}
	for _, chunkID := range removedChunkIDs {
		s.indices.DeleteVector(chunkID)
	}
	message := fmt.Sprintf("deleted %d chunks and %d documents", len(removedChunkIDs), len(docs))
	return message, nil
}
