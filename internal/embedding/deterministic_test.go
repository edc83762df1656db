package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicEmbedder_SameTextSameVector(t *testing.T) {
	e := NewDeterministic(16)
	a, err := e.Embed(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), []string{"hello world"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDeterministicEmbedder_DifferentTextDifferentVector(t *testing.T) {
	e := NewDeterministic(16)
	vectors, err := e.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestDeterministicEmbedder_DimensionAndUnitNorm(t *testing.T) {
	e := NewDeterministic(8)
	assert.Equal(t, 8, e.Dimension())

	vectors, err := e.Embed(context.Background(), []string{"some chunk text"})
	require.NoError(t, err)
	require.Len(t, vectors[0], 8)

	var normSquared float64
	for _, v := range vectors[0] {
		normSquared += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(normSquared), 1e-4)
}
