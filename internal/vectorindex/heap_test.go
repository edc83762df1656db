package vectorindex

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNeighborHeap_KeepsKClosest(t *testing.T) {
	h := newNeighborHeap(2)
	h.offer(Neighbor{ID: uuid.New(), Distance: 5})
	h.offer(Neighbor{ID: uuid.New(), Distance: 1})
	h.offer(Neighbor{ID: uuid.New(), Distance: 3})
	h.offer(Neighbor{ID: uuid.New(), Distance: 0.5})

	out := h.sorted()
	assert.Len(t, out, 2)
	assert.Equal(t, float32(0.5), out[0].Distance)
	assert.Equal(t, float32(1), out[1].Distance)
}

func TestNeighborHeap_TiesBreakByID(t *testing.T) {
	idA := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	idB := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	h := newNeighborHeap(2)
	h.offer(Neighbor{ID: idB, Distance: 1})
	h.offer(Neighbor{ID: idA, Distance: 1})

	out := h.sorted()
	assert.Equal(t, idA, out[0].ID)
	assert.Equal(t, idB, out[1].ID)
}

func TestNeighborHeap_ZeroKNeverFills(t *testing.T) {
	h := newNeighborHeap(0)
	h.offer(Neighbor{ID: uuid.New(), Distance: 1})
	assert.Empty(t, h.sorted())
}
