// Package indexmanager implements the IndexManager (spec §4.4): it owns one
// instance of every enabled VectorIndex, embeds query text, fans writes out
// to every index, fans reads to a chosen index, and serializes concurrent
// access with a single RWMutex (spec §5).
package indexmanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/CharbelDaher34/stackvec/internal/apperr"
	"github.com/CharbelDaher34/stackvec/internal/embedding"
	"github.com/CharbelDaher34/stackvec/internal/model"
	"github.com/CharbelDaher34/stackvec/internal/store"
	"github.com/CharbelDaher34/stackvec/internal/vectorindex"
)

// Factory builds a fresh, empty VectorIndex of a given kind, fixed to
// dimension dim. Kept as a function rather than a registry struct so the
// manager doesn't need to import every concrete index type's constructor
// signature.
type Factory func(dim int) vectorindex.VectorIndex

// DefaultFactories returns the three index kinds spec §2.3 names, wired to
// the given BallTree leaf size.
func DefaultFactories(ballTreeLeafSize int) map[string]Factory {
	return map[string]Factory{
		"linear": func(dim int) vectorindex.VectorIndex {
			return vectorindex.NewLinearIndex(dim)
		},
		"ball_tree": func(dim int) vectorindex.VectorIndex {
			return vectorindex.NewBallTree(dim, ballTreeLeafSize)
		},
		"kd_tree": func(dim int) vectorindex.VectorIndex {
			return vectorindex.NewKDTreeIndex(dim)
		},
	}
}

// SearchHit is a single result of Manager.Search: the resolved chunk when
// the store still has it, or an (id, distance) stub when it doesn't (spec
// §4.4 "transient stale-read disclosure").
type SearchHit struct {
	ID       uuid.UUID
	Distance float32
	Chunk    *model.Chunk // nil if the store no longer has this id
}

// Manager is the IndexManager of spec §4.4.
type Manager struct {
	dim      int
	embedder embedding.Embedder
	store    store.ChunkStore
	log      zerolog.Logger

	mu            sync.RWMutex
	indices       map[string]vectorindex.VectorIndex
	factories     map[string]Factory
	sizeAtRebuild map[string]int
	growthFactor  float64
}

// New constructs a Manager with one index per entry in factories, all fixed
// to dimension dim. The manager starts empty; call Rebuild or RebuildAll to
// populate from the store.
func New(dim int, embedder embedding.Embedder, chunkStore store.ChunkStore, factories map[string]Factory, growthFactor float64, log zerolog.Logger) *Manager {
	indices := make(map[string]vectorindex.VectorIndex, len(factories))
	for name, factory := range factories {
		indices[name] = factory(dim)
	}
	if growthFactor <= 1 {
		growthFactor = 1.5
	}
	return &Manager{
		dim:           dim,
		embedder:      embedder,
		store:         chunkStore,
		log:           log,
		indices:       indices,
		factories:     factories,
		sizeAtRebuild: make(map[string]int),
		growthFactor:  growthFactor,
	}
}

// RebuildAll rebuilds every configured index from the store, in parallel
// across index names (golang.org/x/sync/errgroup), still serialized against
// concurrent writers by mu.
func (m *Manager) RebuildAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vectors, ids := m.collectForBuild(ctx)

	g, _ := errgroup.WithContext(ctx)
	for name, idx := range m.indices {
		name, idx := name, idx
		g.Go(func() error {
			if err := idx.Build(vectors, ids); err != nil {
				return fmt.Errorf("build index %q: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for name := range m.indices {
		m.sizeAtRebuild[name] = len(ids)
	}
	return nil
}

// Rebuild rebuilds a single named index from the store (spec §4.4).
func (m *Manager) Rebuild(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.indices[name]
	if !ok {
		return apperr.ErrUnknownIndex
	}

	vectors, ids := m.collectForBuild(ctx)
	if err := idx.Build(vectors, ids); err != nil {
		return fmt.Errorf("build index %q: %w", name, err)
	}
	m.sizeAtRebuild[name] = len(ids)
	return nil
}

// collectForBuild streams all chunks with non-empty, correctly-dimensioned
// embeddings from the store, discarding the rest (spec §4.4 "Startup /
// Rebuild"). Callers must hold mu.
func (m *Manager) collectForBuild(ctx context.Context) ([][]float32, []uuid.UUID) {
	var vectors [][]float32
	var ids []uuid.UUID
	for chunk := range m.store.ListAllChunks(ctx, true) {
		if len(chunk.Embedding) != m.dim {
			continue
		}
		vectors = append(vectors, chunk.Embedding)
		ids = append(ids, chunk.ID)
	}
	return vectors, ids
}

// AddVector fans a single insert out to every configured index (spec §4.4).
func (m *Manager) AddVector(vector []float32, id uuid.UUID) error {
	if len(vector) != m.dim {
		return apperr.ErrDimensionMismatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for name, idx := range m.indices {
		if err := idx.Add(vector, id); err != nil {
			// A failed per-index Add after a successful store commit leaves
			// I3 temporarily violated for this id until the next Rebuild
			// reconciles state (spec §7 propagation policy).
			m.log.Error().Err(err).Str("index", name).Str("id", id.String()).
				Msg("add_vector failed for index; invariant I3 violated until next rebuild")
		}
	}
	m.maybeScheduleGrowthRebuild()
	return nil
}

// DeleteVector removes id from every index, ignoring whether each
// individual index actually held it (spec §4.4: "deletion is best-effort
// per-index consistency, globally idempotent").
func (m *Manager) DeleteVector(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, idx := range m.indices {
		idx.Delete(id)
	}
}

// maybeScheduleGrowthRebuild logs a rebuild recommendation once an index has
// grown past growthFactor times its size at the last build (spec §9
// "ball-tree drift"); it does not perform the rebuild itself, since its
// caller already holds mu exclusively and calling Rebuild here would
// deadlock. NeedsRebuild exposes the same check; nothing in this module
// triggers a rebuild automatically.
func (m *Manager) maybeScheduleGrowthRebuild() {
	for name, idx := range m.indices {
		baseline := m.sizeAtRebuild[name]
		if baseline == 0 {
			continue
		}
		if float64(idx.Len()) > float64(baseline)*m.growthFactor {
			m.log.Warn().Str("index", name).Int("size", idx.Len()).Int("size_at_last_build", baseline).
				Msg("index has grown past the rebuild growth threshold")
		}
	}
}

// NeedsRebuild reports which configured indices have grown past the
// configured threshold since their last build (spec §9).
func (m *Manager) NeedsRebuild() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name, idx := range m.indices {
		baseline := m.sizeAtRebuild[name]
		if baseline > 0 && float64(idx.Len()) > float64(baseline)*m.growthFactor {
			names = append(names, name)
		}
	}
	return names
}

// Search embeds query_text outside the lock, runs the named index's kNN
// search under a shared lock, then resolves ids back to chunk payloads
// outside the lock (spec §4.4, §5).
func (m *Manager) Search(ctx context.Context, queryText string, k int, indexName string) ([]SearchHit, error) {
	vectors, err := m.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return m.SearchVector(ctx, vectors[0], k, indexName)
}

// SearchVector runs kNN against a caller-supplied vector (e.g. a manual
// vector submitted directly, bypassing the embedder) instead of query text.
func (m *Manager) SearchVector(ctx context.Context, query []float32, k int, indexName string) ([]SearchHit, error) {
	m.mu.RLock()
	idx, ok := m.indices[indexName]
	if !ok {
		m.mu.RUnlock()
		return nil, apperr.ErrUnknownIndex
	}
	neighbors, err := idx.Search(query, k)
	m.mu.RUnlock()

	if err != nil {
		if err == vectorindex.ErrDimensionMismatch {
			return nil, apperr.ErrDimensionMismatch
		}
		return nil, err
	}

	hits := make([]SearchHit, len(neighbors))
	for i, n := range neighbors {
		hit := SearchHit{ID: n.ID, Distance: n.Distance}
		if chunk, err := m.store.GetChunk(ctx, n.ID); err == nil {
			c := chunk
			hit.Chunk = &c
		}
		hits[i] = hit
	}
	return hits, nil
}

// IndexNames returns the configured index names, for validating
// ?index_types= query parameters before doing any work.
func (m *Manager) IndexNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.indices))
	for name := range m.indices {
		names = append(names, name)
	}
	return names
}

// Len reports the current size of a named index (for tests and the
// concurrency property P7).
func (m *Manager) Len(indexName string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indices[indexName]
	if !ok {
		return 0, false
	}
	return idx.Len(), true
}
