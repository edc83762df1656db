package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CharbelDaher34/stackvec/internal/embedding"
	"github.com/CharbelDaher34/stackvec/internal/indexmanager"
	"github.com/CharbelDaher34/stackvec/internal/model"
	"github.com/CharbelDaher34/stackvec/internal/store/memstore"
)

func newTestServices(t *testing.T) (*LibraryService, *DocumentService, *ChunkService, *indexmanager.Manager) {
	t.Helper()
	st := memstore.New()
	embedder := embedding.NewDeterministic(4)
	indices := indexmanager.New(4, embedder, st, indexmanager.DefaultFactories(4), 1.5, zerolog.Nop())

	libraries := NewLibraryService(st, indices, zerolog.Nop())
	documents := NewDocumentService(st, indices, zerolog.Nop())
	chunks := NewChunkService(st, st, embedder, indices, zerolog.Nop())
	return libraries, documents, chunks, indices
}

func TestChunkService_UpdateReplacesVectorInEveryIndex(t *testing.T) {
	libraries, documents, chunks, indices := newTestServices(t)
	ctx := context.Background()

	lib, err := libraries.Create(ctx, model.LibraryCreate{Name: "L", WrittenBy: "a"})
	require.NoError(t, err)
	doc, err := documents.Create(ctx, model.DocumentCreate{Name: "D", LibraryID: lib.ID})
	require.NoError(t, err)
	chunk, err := chunks.Create(ctx, model.ChunkCreate{Text: "alpha", DocumentID: doc.ID})
	require.NoError(t, err)

	updated, err := chunks.Update(ctx, chunk.ID, model.ChunkUpdate{Text: "delta"})
	require.NoError(t, err)
	assert.Equal(t, "delta", updated.Text)
	assert.NotEqual(t, chunk.Embedding, updated.Embedding)

	hits, err := indices.SearchVector(ctx, updated.Embedding, 1, "linear")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, chunk.ID, hits[0].ID)
	require.NotNil(t, hits[0].Chunk)
	assert.Equal(t, "delta", hits[0].Chunk.Text)
}

func TestLibraryService_DeleteCascadesToIndex(t *testing.T) {
	libraries, documents, chunks, indices := newTestServices(t)
	ctx := context.Background()

	lib, err := libraries.Create(ctx, model.LibraryCreate{Name: "L", WrittenBy: "a"})
	require.NoError(t, err)
	doc, err := documents.Create(ctx, model.DocumentCreate{Name: "D", LibraryID: lib.ID})
	require.NoError(t, err)
	chunk, err := chunks.Create(ctx, model.ChunkCreate{Text: "alpha", DocumentID: doc.ID})
	require.NoError(t, err)

	require.NoError(t, libraries.Delete(ctx, lib.ID))

	hits, err := indices.SearchVector(ctx, chunk.Embedding, 5, "linear")
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, chunk.ID, h.ID)
	}
}

func TestDocumentService_DeleteByLibraryReportsCounts(t *testing.T) {
	libraries, documents, chunks, _ := newTestServices(t)
	ctx := context.Background()

	lib, err := libraries.Create(ctx, model.LibraryCreate{Name: "L", WrittenBy: "a"})
	require.NoError(t, err)
	doc, err := documents.Create(ctx, model.DocumentCreate{Name: "D", LibraryID: lib.ID})
	require.NoError(t, err)
	_, err = chunks.Create(ctx, model.ChunkCreate{Text: "alpha", DocumentID: doc.ID})
	require.NoError(t, err)
	_, err = chunks.Create(ctx, model.ChunkCreate{Text: "beta", DocumentID: doc.ID})
	require.NoError(t, err)

	message, err := documents.DeleteByLibrary(ctx, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, "deleted 2 chunks and 1 documents", message)
}

func TestChunkService_CreateRandomAttachesToExistingDocument(t *testing.T) {
	libraries, documents, chunks, _ := newTestServices(t)
	ctx := context.Background()

	lib, err := libraries.Create(ctx, model.LibraryCreate{Name: "L", WrittenBy: "a"})
	require.NoError(t, err)
	doc, err := documents.Create(ctx, model.DocumentCreate{Name: "D", LibraryID: lib.ID})
	require.NoError(t, err)

	chunk, err := chunks.CreateRandom(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, chunk.DocumentID)
	assert.NotEmpty(t, chunk.Text)
}
