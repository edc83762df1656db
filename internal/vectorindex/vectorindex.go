// Package vectorindex implements the VectorIndex contract (spec §4.1) and
// its concrete variants: a brute-force LinearIndex, a metric-space BallTree,
// and an axis-aligned KDTreeIndex. Every variant serves exact Euclidean kNN;
// none of them mutate under Search, and all are safe for use only under the
// caller's own lock (the IndexManager owns concurrency, not the indices
// themselves, per spec §5).
package vectorindex

import (
	"errors"

	"github.com/google/uuid"
)

// ErrDimensionMismatch is returned whenever a query or inserted vector's
// length does not equal the index's fixed dimension D.
var ErrDimensionMismatch = errors.New("vectorindex: dimension mismatch")

// Neighbor is a single kNN search result: the id of the matching entry and
// its Euclidean distance from the query.
type Neighbor struct {
	ID       uuid.UUID
	Distance float32
}

// VectorIndex is the contract every index variant implements (spec §4.1).
// Search on an empty index returns (nil, nil), never an error.
type VectorIndex interface {
	// Build bulk-initializes the index, discarding any prior state.
	Build(vectors [][]float32, ids []uuid.UUID) error

	// Add inserts vector under id. If id is already present, the stored
	// vector is replaced (spec §9 Open Question 1: the index itself also
	// guarantees replace-on-duplicate, in addition to the chunk service's
	// delete-then-add on update).
	Add(vector []float32, id uuid.UUID) error

	// Delete removes the entry with the given id, reporting whether a
	// removal occurred.
	Delete(id uuid.UUID) bool

	// Search returns up to k nearest neighbors to query in ascending
	// distance order.
	Search(query []float32, k int) ([]Neighbor, error)

	// Len reports how many entries the index currently holds.
	Len() int
}
