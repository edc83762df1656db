package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// deterministicEmbedder is a seeded hash-projection embedder: each output
// dimension is a stable pseudo-random function of the input text and the
// dimension index, so identical text always yields the identical vector
// (spec §9 "embedding determinism", satisfying P3 exactly rather than the
// relaxed "id matches, distance may not be exactly zero" variant). It has no
// network dependency and is the default embedder for tests and for
// deployments without an Ollama server.
type deterministicEmbedder struct {
	dimension int
}

// NewDeterministic constructs an Embedder that projects text into a unit
// vector of the given dimension.
func NewDeterministic(dimension int) Embedder {
	return &deterministicEmbedder{dimension: dimension}
}

func (e *deterministicEmbedder) Dimension() int { return e.dimension }

func (e *deterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *deterministicEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	var norm float64
	for d := 0; d < e.dimension; d++ {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		_, _ = h.Write([]byte{byte(d), byte(d >> 8)})
		// Map the hash into [-1, 1).
		v := float64(h.Sum64()%2_000_000_007)/1_000_000_003.5 - 1
		vec[d] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for d := range vec {
		vec[d] = float32(float64(vec[d]) / norm)
	}
	return vec
}
