// Package service implements the hooks table of spec §4.5: every
// commit to the relational store that creates, updates or removes a chunk
// (directly, or via a document/library cascade) is followed by the matching
// IndexManager mutation.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CharbelDaher34/stackvec/internal/indexmanager"
	"github.com/CharbelDaher34/stackvec/internal/model"
	"github.com/CharbelDaher34/stackvec/internal/store"
)

// LibraryService wraps a LibraryStore and propagates cascade deletes to the
// IndexManager (spec §4.5 table, rows "Delete Library(l)").
type LibraryService struct {
	store   store.LibraryStore
	indices *indexmanager.Manager
	log     zerolog.Logger
}

// NewLibraryService constructs a LibraryService.
func NewLibraryService(s store.LibraryStore, indices *indexmanager.Manager, log zerolog.Logger) *LibraryService {
	return &LibraryService{store: s, indices: indices, log: log}
}

func (s *LibraryService) Create(ctx context.Context, in model.LibraryCreate) (model.Library, error) {
	return s.store.CreateLibrary(ctx, in)
}

func (s *LibraryService) Get(ctx context.Context, id uuid.UUID) (model.Library, error) {
	return s.store.GetLibrary(ctx, id)
}

func (s *LibraryService) List(ctx context.Context, skip, limit int) ([]model.Library, error) {
	return s.store.ListLibraries(ctx, skip, limit)
}

func (s *LibraryService) Update(ctx context.Context, id uuid.UUID, in model.LibraryCreate) (model.Library, error) {
	return s.store.UpdateLibrary(ctx, id, in)
}

// Delete removes the library and every document/chunk beneath it, then
// deletes every affected chunk's vector from every index.
func (s *LibraryService) Delete(ctx context.Context, id uuid.UUID) error {
	removedChunkIDs, err := s.store.DeleteLibrary(ctx, id)
	if err != nil {
		return err
	}
	for _, chunkID := range removedChunkIDs {
		s.indices.DeleteVector(chunkID)
	}
	s.log.Info().Str("library_id", id.String()).Int("chunks_removed", len(removedChunkIDs)).
		Msg("library deleted, cascaded to index")
	return nil
}
