package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/virtual-ta/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Memory)(nil)

// Memory is an in-process brute-force cosine index.
// Vectors are L2-normalised on insert so similarity is a dot product.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	ids       []string
	vectors   [][]float64
}

// NewMemory creates an empty index
func NewMemory() *Memory {
	return &Memory{}
}

// Reset drops every vector and forgets the dimension
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimension = 0
	m.ids = nil
	m.vectors = nil
}

// Add indexes vector under id. The first vector fixes the index dimension.
func (m *Memory) Add(id string, vector []float32) error {
	if len(vector) == 0 {
		return errors.New("empty vector")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension == 0 {
		m.dimension = len(vector)
	}
	if len(vector) != m.dimension {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vector), m.dimension)
	}
	m.ids = append(m.ids, id)
	m.vectors = append(m.vectors, normalise(vector))
	return nil
}

// Search returns the k most similar ids. Equal scores keep insertion order.
func (m *Memory) Search(query []float32, k int) ([]driven.VectorMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.vectors) == 0 || k <= 0 {
		return []driven.VectorMatch{}, nil
	}
	if len(query) != m.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(query), m.dimension)
	}

	q := normalise(query)
	matches := make([]driven.VectorMatch, len(m.vectors))
	for i, v := range m.vectors {
		matches[i] = driven.VectorMatch{ID: m.ids[i], Score: dot(v, q)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// Len returns the number of indexed vectors
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func normalise(v []float32) []float64 {
	out := make([]float64, len(v))
	var norm float64
	for i, x := range v {
		out[i] = float64(x)
		norm += out[i] * out[i]
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
