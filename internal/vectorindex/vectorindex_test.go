package vectorindex

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// factories under test; every VectorIndex variant must satisfy the same
// contract (spec §8 P1-P4), so the properties below run against all three.
func indexFactories() map[string]func(dim int) VectorIndex {
	return map[string]func(dim int) VectorIndex{
		"linear":   func(dim int) VectorIndex { return NewLinearIndex(dim) },
		"ball_tree": func(dim int) VectorIndex { return NewBallTree(dim, 4) },
		"kd_tree":   func(dim int) VectorIndex { return NewKDTreeIndex(dim) },
	}
}

func TestVectorIndex_InsertThenSearchIsExact(t *testing.T) {
	// P3: after Add(v, id), Search(v, 1) returns exactly [(id, 0)].
	for name, factory := range indexFactories() {
		t.Run(name, func(t *testing.T) {
			idx := factory(3)
			id := uuid.New()
			require.NoError(t, idx.Add([]float32{1, 2, 3}, id))

			neighbors, err := idx.Search([]float32{1, 2, 3}, 1)
			require.NoError(t, err)
			require.Len(t, neighbors, 1)
			assert.Equal(t, id, neighbors[0].ID)
			assert.InDelta(t, 0, neighbors[0].Distance, 1e-5)
		})
	}
}

func TestVectorIndex_DeleteThenSearchExcludesID(t *testing.T) {
	// P4: after Add(v, id); Delete(id); Search(v, k), no result equals id.
	for name, factory := range indexFactories() {
		t.Run(name, func(t *testing.T) {
			idx := factory(2)
			target := uuid.New()
			require.NoError(t, idx.Add([]float32{0, 0}, target))
			for i := 0; i < 5; i++ {
				require.NoError(t, idx.Add([]float32{float32(i + 1), float32(i + 1)}, uuid.New()))
			}

			removed := idx.Delete(target)
			assert.True(t, removed)

			neighbors, err := idx.Search([]float32{0, 0}, 5)
			require.NoError(t, err)
			for _, n := range neighbors {
				assert.NotEqual(t, target, n.ID)
			}
		})
	}
}

func TestVectorIndex_BuildAgainstLinearOracle(t *testing.T) {
	// P1: BallTree and KDTreeIndex agree with the brute-force LinearIndex on
	// the set of nearest-neighbor ids. The fixture has exact distance ties
	// (i=9 and i=11, i=8 and i=12), so order is not compared; the 5-nearest
	// set is still unambiguous (5th squared distance 28, 6th 63).
	dim := 4
	vectors := make([][]float32, 0, 40)
	ids := make([]uuid.UUID, 0, 40)
	for i := 0; i < 40; i++ {
		vectors = append(vectors, []float32{float32(i), float32(i * 2), float32(-i), float32(i % 7)})
		ids = append(ids, uuid.New())
	}

	oracle := NewLinearIndex(dim)
	require.NoError(t, oracle.Build(vectors, ids))

	query := []float32{10, 20, -10, 3}
	wantNeighbors, err := oracle.Search(query, 5)
	require.NoError(t, err)
	want := make(map[uuid.UUID]bool, len(wantNeighbors))
	for _, n := range wantNeighbors {
		want[n.ID] = true
	}

	for name, factory := range map[string]func(dim int) VectorIndex{
		"ball_tree": func(dim int) VectorIndex { return NewBallTree(dim, 4) },
		"kd_tree":   func(dim int) VectorIndex { return NewKDTreeIndex(dim) },
	} {
		t.Run(name, func(t *testing.T) {
			idx := factory(dim)
			require.NoError(t, idx.Build(vectors, ids))

			got, err := idx.Search(query, 5)
			require.NoError(t, err)
			require.Len(t, got, 5)
			for _, n := range got {
				assert.True(t, want[n.ID], "unexpected neighbor %s not in oracle result set", n.ID)
			}
		})
	}
}

func TestVectorIndex_SearchOnEmptyIndexReturnsNilNoError(t *testing.T) {
	for name, factory := range indexFactories() {
		t.Run(name, func(t *testing.T) {
			idx := factory(2)
			neighbors, err := idx.Search([]float32{1, 1}, 3)
			require.NoError(t, err)
			assert.Nil(t, neighbors)
			assert.Equal(t, 0, idx.Len())
		})
	}
}

func TestVectorIndex_DimensionMismatchErrors(t *testing.T) {
	for name, factory := range indexFactories() {
		t.Run(name, func(t *testing.T) {
			idx := factory(3)
			assert.ErrorIs(t, idx.Add([]float32{1, 2}, uuid.New()), ErrDimensionMismatch)

			require.NoError(t, idx.Add([]float32{1, 2, 3}, uuid.New()))
			_, err := idx.Search([]float32{1, 2}, 1)
			assert.ErrorIs(t, err, ErrDimensionMismatch)
		})
	}
}

func TestVectorIndex_AddReplacesExistingID(t *testing.T) {
	for name, factory := range indexFactories() {
		t.Run(name, func(t *testing.T) {
			idx := factory(2)
			id := uuid.New()
			require.NoError(t, idx.Add([]float32{0, 0}, id))
			require.NoError(t, idx.Add([]float32{9, 9}, id))

			assert.Equal(t, 1, idx.Len())
			neighbors, err := idx.Search([]float32{9, 9}, 1)
			require.NoError(t, err)
			require.Len(t, neighbors, 1)
			assert.Equal(t, id, neighbors[0].ID)
			assert.InDelta(t, 0, neighbors[0].Distance, 1e-5)
		})
	}
}
