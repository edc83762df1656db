package vectorindex

import (
	"github.com/google/uuid"
)

// LinearIndex is a brute-force exact-kNN index: parallel vectors/ids slices,
// O(N) search. Grounded in original_source's linear_index.py; serves both as
// a production baseline and as the ground-truth oracle BallTree/KDTreeIndex
// are tested against (spec §8 P1).
type LinearIndex struct {
	dim     int
	vectors [][]float32
	ids     []uuid.UUID
}

// NewLinearIndex constructs an empty LinearIndex fixed to dimension dim.
func NewLinearIndex(dim int) *LinearIndex {
	return &LinearIndex{dim: dim}
}

func (l *LinearIndex) Build(vectors [][]float32, ids []uuid.UUID) error {
	for _, v := range vectors {
		if len(v) != l.dim {
			return ErrDimensionMismatch
		}
	}
	l.vectors = make([][]float32, len(vectors))
	l.ids = make([]uuid.UUID, len(ids))
	for i, v := range vectors {
		l.vectors[i] = cloneVector(v)
	}
	copy(l.ids, ids)
	return nil
}

// Add appends vector under id, or replaces the stored vector in place if id
// is already present.
func (l *LinearIndex) Add(vector []float32, id uuid.UUID) error {
	if len(vector) != l.dim {
		return ErrDimensionMismatch
	}
	for i, existing := range l.ids {
		if existing == id {
			l.vectors[i] = cloneVector(vector)
			return nil
		}
	}
	l.vectors = append(l.vectors, cloneVector(vector))
	l.ids = append(l.ids, id)
	return nil
}

// Delete swap-removes the entry with the matching id: O(1) by moving the
// last entry into the vacated slot instead of shifting the tail.
func (l *LinearIndex) Delete(id uuid.UUID) bool {
	for i, existing := range l.ids {
		if existing != id {
			continue
		}
		last := len(l.ids) - 1
		l.vectors[i] = l.vectors[last]
		l.ids[i] = l.ids[last]
		l.vectors = l.vectors[:last]
		l.ids = l.ids[:last]
		return true
	}
	return false
}

func (l *LinearIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != l.dim {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 || len(l.vectors) == 0 {
		return nil, nil
	}

	h := newNeighborHeap(k)
	for i, v := range l.vectors {
		h.offer(Neighbor{ID: l.ids[i], Distance: distance(query, v)})
	}
	return h.sorted(), nil
}

func (l *LinearIndex) Len() int { return len(l.ids) }
