package vectorindex

import (
	"github.com/google/uuid"
)

// DefaultLeafSize is the maximum number of points a BallTree leaf holds
// before it must split (spec §3 invariant I5).
const DefaultLeafSize = 20

// ballNode is a BallTree node (spec §3 BallTreeNode). A leaf carries its own
// points/ids; an internal node carries two children and no points.
type ballNode struct {
	centroid []float32
	radius   float32

	points [][]float32
	ids    []uuid.UUID

	left, right *ballNode
}

func (n *ballNode) isLeaf() bool { return n.left == nil && n.right == nil }

// BallTree is a recursive metric-ball tree (spec §4.3), grounded in
// original_source's ball_tree.py and generalized with online delete (the
// original has no delete method; spec §9 mandates one with a
// full-traversal fallback for drifted guided descent).
type BallTree struct {
	dim      int
	leafSize int
	root     *ballNode
	size     int
}

// NewBallTree constructs an empty BallTree fixed to dimension dim, splitting
// leaves once they exceed leafSize points.
func NewBallTree(dim, leafSize int) *BallTree {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	return &BallTree{dim: dim, leafSize: leafSize}
}

func (t *BallTree) Build(vectors [][]float32, ids []uuid.UUID) error {
	for _, v := range vectors {
		if len(v) != t.dim {
			return ErrDimensionMismatch
		}
	}
	points := make([][]float32, len(vectors))
	idsCopy := make([]uuid.UUID, len(ids))
	for i, v := range vectors {
		points[i] = cloneVector(v)
	}
	copy(idsCopy, ids)

	t.root = t.build(points, idsCopy)
	t.size = len(idsCopy)
	return nil
}

func (t *BallTree) build(points [][]float32, ids []uuid.UUID) *ballNode {
	if len(points) == 0 {
		return nil
	}
	node := newLeaf(points, ids)
	if len(points) <= t.leafSize {
		return node
	}

	leftPoints, leftIDs, rightPoints, rightIDs := t.splitPoints(points, ids)
	node.left = t.build(leftPoints, leftIDs)
	node.right = t.build(rightPoints, rightIDs)
	node.points, node.ids = nil, nil
	refreshInternalBounds(node)
	return node
}

func newLeaf(points [][]float32, ids []uuid.UUID) *ballNode {
	node := &ballNode{points: points, ids: ids}
	refreshLeafBounds(node)
	return node
}

func refreshLeafBounds(node *ballNode) {
	if len(node.points) == 0 {
		node.centroid = nil
		node.radius = 0
		return
	}
	node.centroid = mean(node.points)
	node.radius = maxRadius(node.points, node.centroid)
}

// refreshInternalBounds implements spec §4.3's over-approximating bound
// update: centroid is the midpoint of the children's centroids, radius is
// the max over each child of (distance-to-midpoint + child radius). This
// preserves invariant I4 without recomputing the true centroid of every
// descendant (spec §9 "ball-tree drift").
func refreshInternalBounds(node *ballNode) {
	if node.left == nil || node.left.centroid == nil {
		node.centroid = node.right.centroid
		node.radius = node.right.radius
		return
	}
	if node.right == nil || node.right.centroid == nil {
		node.centroid = node.left.centroid
		node.radius = node.left.radius
		return
	}

	dim := len(node.left.centroid)
	centroid := make([]float32, dim)
	for i := range centroid {
		centroid[i] = (node.left.centroid[i] + node.right.centroid[i]) / 2
	}
	node.centroid = centroid

	radLeft := distance(node.left.centroid, centroid) + node.left.radius
	radRight := distance(node.right.centroid, centroid) + node.right.radius
	node.radius = radLeft
	if radRight > node.radius {
		node.radius = radRight
	}
}

// splitPoints finds two mutually farthest points via the O(n) two-pass
// heuristic from spec §4.3 bullet 2 and partitions every point to whichever
// of the two it is closer to, ties going left. Degenerate (all-duplicate)
// inputs fall back to a median-index split so neither side is empty.
func (t *BallTree) splitPoints(points [][]float32, ids []uuid.UUID) ([][]float32, []uuid.UUID, [][]float32, []uuid.UUID) {
	a := points[0]
	p1 := a
	var maxD float32 = -1
	for _, p := range points {
		if d := distance(a, p); d > maxD {
			maxD, p1 = d, p
		}
	}
	var p2 []float32
	maxD = -1
	for _, p := range points {
		if d := distance(p1, p); d > maxD {
			maxD, p2 = d, p
		}
	}

	var leftPoints, rightPoints [][]float32
	var leftIDs, rightIDs []uuid.UUID
	for i, p := range points {
		if distance(p, p1) <= distance(p, p2) {
			leftPoints = append(leftPoints, p)
			leftIDs = append(leftIDs, ids[i])
		} else {
			rightPoints = append(rightPoints, p)
			rightIDs = append(rightIDs, ids[i])
		}
	}

	if len(leftPoints) == 0 || len(rightPoints) == 0 {
		mid := len(points) / 2
		leftPoints, leftIDs = points[:mid], ids[:mid]
		rightPoints, rightIDs = points[mid:], ids[mid:]
	}

	return leftPoints, leftIDs, rightPoints, rightIDs
}

// Add inserts (vector, id) via a guided descent to the best leaf, splitting
// it if it overflows, refreshing ancestor bounds on the way back up (spec
// §4.3 "Online insert"). Re-adding an existing id first deletes it so the
// tree doesn't carry a duplicate entry.
func (t *BallTree) Add(vector []float32, id uuid.UUID) error {
	if len(vector) != t.dim {
		return ErrDimensionMismatch
	}
	t.Delete(id)

	point := cloneVector(vector)
	if t.root == nil {
		t.root = newLeaf([][]float32{point}, []uuid.UUID{id})
		t.size++
		return nil
	}
	t.insert(t.root, point, id)
	t.size++
	return nil
}

func (t *BallTree) insert(node *ballNode, point []float32, id uuid.UUID) {
	if node.isLeaf() {
		node.points = append(node.points, point)
		node.ids = append(node.ids, id)
		if len(node.points) > t.leafSize {
			leftPoints, leftIDs, rightPoints, rightIDs := t.splitPoints(node.points, node.ids)
			node.left = newLeaf(leftPoints, leftIDs)
			node.right = newLeaf(rightPoints, rightIDs)
			node.points, node.ids = nil, nil
			refreshInternalBounds(node)
		} else {
			refreshLeafBounds(node)
		}
		return
	}

	distLeft := distance(point, node.left.centroid)
	distRight := distance(point, node.right.centroid)
	if distLeft <= distRight {
		t.insert(node.left, point, id)
	} else {
		t.insert(node.right, point, id)
	}
	refreshInternalBounds(node)
}

// Delete removes the entry with the given id. It first checks the leftmost
// leaf reached by descendGuided (which has only the id, so it does not steer
// by centroids); when the id is not there, a full traversal is used as a
// fallback (spec §9 "BallTree delete guided-descent").
func (t *BallTree) Delete(id uuid.UUID) bool {
	if t.root == nil {
		return false
	}
	path := make([]*ballNode, 0, 32)
	if leaf := t.descendGuided(t.root, id, &path); leaf != nil {
		if removeFromLeaf(leaf, id) {
			t.refreshPath(path)
			t.size--
			t.collapseEmpty()
			return true
		}
	}
	// Guided descent missed the id (centroid drift); fall back to a full
	// traversal that tries every branch (spec §9 "BallTree delete
	// guided-descent").
	if t.deleteFullScan(t.root, id) {
		t.size--
		t.collapseEmpty()
		return true
	}
	return false
}

// descendGuided follows, at each internal node, only the child whose
// centroid is closer to a point we don't actually have (we have only an id)
// — so it approximates by always trying the left child first, recording the
// visited path. This is deliberately cheap and sometimes wrong: it is a
// heuristic fast path, not a correctness guarantee, matching
// original_source's centroid-guided walk that spec §9 says can miss.
func (t *BallTree) descendGuided(node *ballNode, id uuid.UUID, path *[]*ballNode) *ballNode {
	if node == nil {
		return nil
	}
	*path = append(*path, node)
	if node.isLeaf() {
		return node
	}
	return t.descendGuided(node.left, id, path)
}

func removeFromLeaf(node *ballNode, id uuid.UUID) bool {
	for i, existing := range node.ids {
		if existing == id {
			removeAt(node, i)
			refreshLeafBounds(node)
			return true
		}
	}
	return false
}

func (t *BallTree) refreshPath(path []*ballNode) {
	for i := len(path) - 1; i >= 0; i-- {
		if !path[i].isLeaf() {
			refreshInternalBounds(path[i])
		}
	}
}

// deleteFullScan visits every node unconditionally until the id is found,
// refreshing bounds back up whichever branch contained it.
func (t *BallTree) deleteFullScan(node *ballNode, id uuid.UUID) bool {
	if node == nil {
		return false
	}
	if node.isLeaf() {
		return removeFromLeaf(node, id)
	}
	if t.deleteFullScan(node.left, id) {
		refreshInternalBounds(node)
		return true
	}
	if t.deleteFullScan(node.right, id) {
		refreshInternalBounds(node)
		return true
	}
	return false
}

func removeAt(node *ballNode, i int) {
	last := len(node.ids) - 1
	node.points[i] = node.points[last]
	node.ids[i] = node.ids[last]
	node.points = node.points[:last]
	node.ids = node.ids[:last]
}

// collapseEmpty removes the degenerate case of two empty leaf children,
// turning their parent back into an empty leaf so it doesn't poison
// ancestor bound refreshes with a nil centroid.
func (t *BallTree) collapseEmpty() {
	t.root = collapseNode(t.root)
}

func collapseNode(node *ballNode) *ballNode {
	if node == nil || node.isLeaf() {
		return node
	}
	node.left = collapseNode(node.left)
	node.right = collapseNode(node.right)
	if node.left != nil && node.left.isLeaf() && len(node.left.points) == 0 &&
		node.right != nil && node.right.isLeaf() && len(node.right.points) == 0 {
		return newLeaf(nil, nil)
	}
	return node
}

func (t *BallTree) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != t.dim {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 || t.root == nil {
		return nil, nil
	}
	h := newNeighborHeap(k)
	t.searchNode(t.root, query, h)
	return h.sorted(), nil
}

func (t *BallTree) searchNode(node *ballNode, query []float32, h *neighborHeap) {
	if node == nil || node.centroid == nil {
		return
	}
	distToCentroid := distance(query, node.centroid)
	if h.full() && distToCentroid-node.radius > h.farthest() {
		return
	}

	if node.isLeaf() {
		for i, p := range node.points {
			h.offer(Neighbor{ID: node.ids[i], Distance: distance(query, p)})
		}
		return
	}

	distLeft := distance(query, node.left.centroid)
	distRight := distance(query, node.right.centroid)
	if distLeft < distRight {
		t.searchNode(node.left, query, h)
		t.searchNode(node.right, query, h)
	} else {
		t.searchNode(node.right, query, h)
		t.searchNode(node.left, query, h)
	}
}

func (t *BallTree) Len() int { return t.size }
