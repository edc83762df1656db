package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CharbelDaher34/stackvec/internal/embedding"
	"github.com/CharbelDaher34/stackvec/internal/indexmanager"
	"github.com/CharbelDaher34/stackvec/internal/model"
	"github.com/CharbelDaher34/stackvec/internal/store"
)

// ChunkService wraps a ChunkStore, computes embeddings at create/update
// time, and emits the index mutations tabulated in spec §4.5.
type ChunkService struct {
	store    store.ChunkStore
	docStore store.DocumentStore
	embedder embedding.Embedder
	indices  *indexmanager.Manager
	log      zerolog.Logger

	// replaceOnUpdate controls the spec §9 Open Question 1 resolution: Update
	// always issues DeleteVector before AddVector on a text-changing
	// update, rather than relying solely on each index's own
	// replace-on-duplicate behavior.
	replaceOnUpdate bool
}

// NewChunkService constructs a ChunkService.
func NewChunkService(s store.ChunkStore, docStore store.DocumentStore, embedder embedding.Embedder, indices *indexmanager.Manager, log zerolog.Logger) *ChunkService {
	return &ChunkService{store: s, docStore: docStore, embedder: embedder, indices: indices, log: log, replaceOnUpdate: true}
}

// Create embeds the chunk's text, commits it to the store, then adds its
// vector to every index (spec §4.5 row "Create Chunk(c)").
func (s *ChunkService) Create(ctx context.Context, in model.ChunkCreate) (model.Chunk, error) {
	vectors, err := s.embedder.Embed(ctx, []string{in.Text})
	if err != nil {
		return model.Chunk{}, fmt.Errorf("embed chunk text: %w", err)
	}

	chunk, err := s.store.CreateChunk(ctx, model.Chunk{
		DocumentID: in.DocumentID,
		Text:       in.Text,
		Embedding:  vectors[0],
	})
	if err != nil {
		return model.Chunk{}, err
	}

	if err := s.indices.AddVector(chunk.Embedding, chunk.ID); err != nil {
		s.log.Error().Err(err).Str("chunk_id", chunk.ID.String()).Msg("add_vector failed after chunk commit")
	}
	return chunk, nil
}

// CreateRandom creates a chunk attached to an arbitrary existing document,
// for the load-testing-oriented POST /chunks/random endpoint (spec §6).
func (s *ChunkService) CreateRandom(ctx context.Context, text string) (model.Chunk, error) {
	if text == "" {
		text = randomLoremText()
	}
	docID, err := s.docStore.RandomDocumentID(ctx)
	if err != nil {
		return model.Chunk{}, err
	}
	return s.Create(ctx, model.ChunkCreate{Text: text, DocumentID: docID})
}

func (s *ChunkService) Get(ctx context.Context, id uuid.UUID) (model.Chunk, error) {
	return s.store.GetChunk(ctx, id)
}

func (s *ChunkService) ListByDocument(ctx context.Context, documentID uuid.UUID, skip, limit int) ([]model.Chunk, error) {
	return s.store.ListChunksByDocument(ctx, documentID, skip, limit)
}

// Update re-embeds changed text, commits it, and replaces the chunk's
// vector in every index (spec §4.5 row "Update Chunk(c), text changed").
func (s *ChunkService) Update(ctx context.Context, id uuid.UUID, in model.ChunkUpdate) (model.Chunk, error) {
	existing, err := s.store.GetChunk(ctx, id)
	if err != nil {
		return model.Chunk{}, err
	}

	textChanged := in.Text != "" && in.Text != existing.Text
	newText := existing.Text
	embeddingVec := existing.Embedding
	if textChanged {
		newText = in.Text
		vectors, err := s.embedder.Embed(ctx, []string{newText})
		if err != nil {
			return model.Chunk{}, fmt.Errorf("embed chunk text: %w", err)
		}
		embeddingVec = vectors[0]
	}

	updated, err := s.store.UpdateChunk(ctx, model.Chunk{
		ID:        id,
		Text:      newText,
		Embedding: embeddingVec,
	})
	if err != nil {
		return model.Chunk{}, err
	}

	if textChanged {
		if s.replaceOnUpdate {
			s.indices.DeleteVector(id)
		}
		if err := s.indices.AddVector(updated.Embedding, updated.ID); err != nil {
			s.log.Error().Err(err).Str("chunk_id", id.String()).Msg("add_vector failed after chunk update")
		}
	}
	return updated, nil
}

// Delete removes the chunk from the store, then from every index (spec
// §4.5 row "Delete Chunk(c)").
func (s *ChunkService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	removed, err := s.store.DeleteChunk(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.indices.DeleteVector(id)
	}
	return removed, nil
}

// DeleteByDocument removes every chunk under documentID from the store and
// from every index, returning the count removed.
func (s *ChunkService) DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	removedIDs, err := s.store.DeleteChunksByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	for _, id := range removedIDs {
		s.indices.DeleteVector(id)
	}
	return len(removedIDs), nil
}

var loremWords = []string{
	"vector", "chunk", "corpus", "library", "document", "embedding", "search",
	"query", "metric", "tree", "leaf", "centroid", "radius", "neighbor",
	"distance", "index", "pipeline", "token", "retrieval", "store",
}

func randomLoremText() string {
	n := 6 + rand.Intn(10)
	words := make([]string, n)
	for i := range words {
		words[i] = loremWords[rand.Intn(len(loremWords))]
	}
	out := words[0]
	for _, w := range words[1:] {
		out += " " + w
	}
	return out
}
