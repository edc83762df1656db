package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CharbelDaher34/stackvec/internal/apperr"
	"github.com/CharbelDaher34/stackvec/internal/model"
)

func TestStore_LibraryDocumentChunkCascade(t *testing.T) {
	s := New()
	ctx := context.Background()

	lib, err := s.CreateLibrary(ctx, model.LibraryCreate{Name: "L1", WrittenBy: "a"})
	require.NoError(t, err)

	doc, err := s.CreateDocument(ctx, model.DocumentCreate{Name: "D1", LibraryID: lib.ID})
	require.NoError(t, err)

	chunk, err := s.CreateChunk(ctx, model.Chunk{DocumentID: doc.ID, Text: "alpha", Embedding: []float32{1, 2, 3}})
	require.NoError(t, err)

	removed, err := s.DeleteLibrary(ctx, lib.ID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, chunk.ID, removed[0])

	_, err = s.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.GetChunk(ctx, chunk.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_CreateDocumentRequiresExistingLibrary(t *testing.T) {
	s := New()
	_, err := s.CreateDocument(context.Background(), model.DocumentCreate{Name: "orphan"})
	assert.ErrorIs(t, err, apperr.ErrForeignKeyMissing)
}

func TestStore_CreateChunkRequiresExistingDocument(t *testing.T) {
	s := New()
	_, err := s.CreateChunk(context.Background(), model.Chunk{Text: "x"})
	assert.ErrorIs(t, err, apperr.ErrForeignKeyMissing)
}

func TestStore_ListPagination(t *testing.T) {
	s := New()
	ctx := context.Background()
	lib, err := s.CreateLibrary(ctx, model.LibraryCreate{Name: "L1", WrittenBy: "a"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.CreateDocument(ctx, model.DocumentCreate{Name: "D", LibraryID: lib.ID})
		require.NoError(t, err)
	}

	page, err := s.ListDocumentsByLibrary(ctx, lib.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestStore_RandomDocumentIDEmptyStore(t *testing.T) {
	s := New()
	_, err := s.RandomDocumentID(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_ListAllChunksForIndexingOnlyPopulatesIDAndEmbedding(t *testing.T) {
	s := New()
	ctx := context.Background()
	lib, err := s.CreateLibrary(ctx, model.LibraryCreate{Name: "L1", WrittenBy: "a"})
	require.NoError(t, err)
	doc, err := s.CreateDocument(ctx, model.DocumentCreate{Name: "D1", LibraryID: lib.ID})
	require.NoError(t, err)
	_, err = s.CreateChunk(ctx, model.Chunk{DocumentID: doc.ID, Text: "alpha", Embedding: []float32{1, 2}})
	require.NoError(t, err)

	for chunk := range s.ListAllChunks(ctx, true) {
		assert.NotEqual(t, "", chunk.ID.String())
		assert.Equal(t, "", chunk.Text)
		assert.Equal(t, []float32{1, 2}, chunk.Embedding)
	}
}

