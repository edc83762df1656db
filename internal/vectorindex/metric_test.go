package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_Basic(t *testing.T) {
	assert.InDelta(t, 5.0, distance([]float32{0, 0}, []float32{3, 4}), 1e-6)
	assert.InDelta(t, 0.0, distance([]float32{1, 1, 1}, []float32{1, 1, 1}), 1e-6)
}

func TestMean_Centroid(t *testing.T) {
	centroid := mean([][]float32{{0, 0}, {2, 0}, {2, 2}, {0, 2}})
	assert.InDeltaSlice(t, []float64{1, 1}, toFloat64(centroid), 1e-6)
}

func TestMaxRadius(t *testing.T) {
	centroid := []float32{0, 0}
	radius := maxRadius([][]float32{{3, 4}, {1, 0}}, centroid)
	assert.InDelta(t, 5.0, radius, 1e-6)
}

func TestCloneVector_IsIndependentCopy(t *testing.T) {
	src := []float32{1, 2, 3}
	dup := cloneVector(src)
	dup[0] = 99
	assert.Equal(t, float32(1), src[0])
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
