// Package vectordb provides vector index and vector store adapters.
package vectordb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
)

// FlatIndex implements ports.VectorIndex with exhaustive inner-product search.
// Vectors are addressed by insertion order, which is the corpus position.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// NewFlatIndexFrom builds an index holding vectors in order.
func NewFlatIndexFrom(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to index")
	}
	idx := NewFlatIndex(len(vectors[0]))
	if err := idx.Add(vectors...); err != nil {
		return nil, err
	}
	return idx, nil
}

// Add appends vectors. Every vector must match the index dimension.
func (f *FlatIndex) Add(vectors ...[]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("vector %d has dimension %d, index expects %d", len(f.vectors)+i, len(v), f.dim)
		}
	}
	f.vectors = append(f.vectors, vectors...)
	return nil
}

// Search returns the k highest inner products, best first.
// Equal scores keep ascending position order.
func (f *FlatIndex) Search(query []float32, k int) ([]ports.Hit, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(query), f.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	hits := make([]ports.Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = ports.Hit{Position: i, Score: innerProduct(query, v)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dimension returns the vector dimension.
func (f *FlatIndex) Dimension() int {
	return f.dim
}

// innerProduct equals cosine similarity for unit vectors.
func innerProduct(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
