package vectorindex

import (
	"sort"

	"github.com/google/uuid"
)

// kdNode is a single split point of a KDTreeIndex.
type kdNode struct {
	vector      []float32
	id          uuid.UUID
	left, right *kdNode
}

// KDTreeIndex is an axis-aligned binary space partition, built once from a
// batch (spec §2.3, §4.1). Grounded in original_source's kd_tree.py: median
// split alternating axis per depth, heap-based kNN descent with
// hyperplane-distance pruning.
//
// KDTreeIndex has no incremental rebalancing: Add/Delete fall back to a full
// rebuild of the current point set, which is the documented limitation of a
// "built once from a batch" structure (spec §2.3) — acceptable at the scales
// this system targets (spec §5).
type KDTreeIndex struct {
	dim     int
	root    *kdNode
	vectors [][]float32
	ids     []uuid.UUID
}

// NewKDTreeIndex constructs an empty KDTreeIndex fixed to dimension dim.
func NewKDTreeIndex(dim int) *KDTreeIndex {
	return &KDTreeIndex{dim: dim}
}

func (t *KDTreeIndex) Build(vectors [][]float32, ids []uuid.UUID) error {
	for _, v := range vectors {
		if len(v) != t.dim {
			return ErrDimensionMismatch
		}
	}
	t.vectors = make([][]float32, len(vectors))
	t.ids = make([]uuid.UUID, len(ids))
	for i, v := range vectors {
		t.vectors[i] = cloneVector(v)
	}
	copy(t.ids, ids)
	t.root = t.buildRecursive(t.vectors, t.ids, 0)
	return nil
}

func (t *KDTreeIndex) buildRecursive(points [][]float32, ids []uuid.UUID, depth int) *kdNode {
	if len(points) == 0 {
		return nil
	}
	axis := depth % t.dim
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return points[order[a]][axis] < points[order[b]][axis] })

	mid := len(order) / 2
	medianIdx := order[mid]

	node := &kdNode{vector: points[medianIdx], id: ids[medianIdx]}

	leftPoints, leftIDs := selectByIndex(points, ids, order[:mid])
	rightPoints, rightIDs := selectByIndex(points, ids, order[mid+1:])

	node.left = t.buildRecursive(leftPoints, leftIDs, depth+1)
	node.right = t.buildRecursive(rightPoints, rightIDs, depth+1)
	return node
}

func selectByIndex(points [][]float32, ids []uuid.UUID, indices []int) ([][]float32, []uuid.UUID) {
	out := make([][]float32, len(indices))
	outIDs := make([]uuid.UUID, len(indices))
	for i, idx := range indices {
		out[i] = points[idx]
		outIDs[i] = ids[idx]
	}
	return out, outIDs
}

// Add appends to the flat point set (or replaces the stored vector when id is
// already present) and rebuilds the tree from scratch.
func (t *KDTreeIndex) Add(vector []float32, id uuid.UUID) error {
	if len(vector) != t.dim {
		return ErrDimensionMismatch
	}
	point := cloneVector(vector)
	replaced := false
	for i, existing := range t.ids {
		if existing == id {
			t.vectors[i] = point
			replaced = true
			break
		}
	}
	if !replaced {
		t.vectors = append(t.vectors, point)
		t.ids = append(t.ids, id)
	}
	t.root = t.buildRecursive(t.vectors, t.ids, 0)
	return nil
}

// Delete removes id from the flat point set and rebuilds the tree.
func (t *KDTreeIndex) Delete(id uuid.UUID) bool {
	for i, existing := range t.ids {
		if existing != id {
			continue
		}
		last := len(t.ids) - 1
		t.vectors[i] = t.vectors[last]
		t.ids[i] = t.ids[last]
		t.vectors = t.vectors[:last]
		t.ids = t.ids[:last]
		t.root = t.buildRecursive(t.vectors, t.ids, 0)
		return true
	}
	return false
}

func (t *KDTreeIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != t.dim {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 || t.root == nil {
		return nil, nil
	}
	h := newNeighborHeap(k)
	t.searchRecursive(t.root, query, 0, h)
	return h.sorted(), nil
}

func (t *KDTreeIndex) searchRecursive(node *kdNode, query []float32, depth int, h *neighborHeap) {
	if node == nil {
		return
	}
	h.offer(Neighbor{ID: node.id, Distance: distance(query, node.vector)})

	axis := depth % t.dim
	diff := query[axis] - node.vector[axis]

	closer, farther := node.left, node.right
	if diff >= 0 {
		closer, farther = node.right, node.left
	}

	t.searchRecursive(closer, query, depth+1, h)

	if !h.full() || diff*diff < h.farthest()*h.farthest() {
		t.searchRecursive(farther, query, depth+1, h)
	}
}

func (t *KDTreeIndex) Len() int { return len(t.ids) }
