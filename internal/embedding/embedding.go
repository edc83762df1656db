// Package embedding provides the Embedder contract spec §2.1 treats as a
// pure function embed(text) -> vector[D], plus two implementations: a
// deterministic hash-projection embedder (no external dependency, used by
// default and in tests) and an HTTP-backed Ollama embedder adapted from the
// teacher repo for real deployments.
package embedding

import "context"

// Embedder generates vector representations for text, fixed to a single
// dimension D for the lifetime of the Embedder.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
