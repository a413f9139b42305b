package rag

import (
	"context"
	"fmt"
	"sync"
)

// MemoryIndex is an exact vector index scanning every stored embedding.
// Vectors are normalized on insert, so the dot product is the cosine
// similarity.
type MemoryIndex struct {
	mu      sync.RWMutex
	chunks  []Chunk
	vectors [][]float64
	dim     int
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Build stores the embedded chunks.
func (m *MemoryIndex) Build(ctx context.Context, chunks []EmbeddedChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chunks != nil {
		return ErrIndexBuilt
	}
	if len(chunks) == 0 {
		m.chunks = []Chunk{}
		return nil
	}
	dim, err := checkDimensions(chunks)
	if err != nil {
		return err
	}

	m.dim = dim
	m.chunks = make([]Chunk, len(chunks))
	m.vectors = make([][]float64, len(chunks))
	for i, c := range chunks {
		m.chunks[i] = c.Chunk
		m.vectors[i] = normalize(c.Embedding)
	}
	return nil
}

// Search scores every chunk against query.
func (m *MemoryIndex) Search(ctx context.Context, query []float64, k int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.chunks) == 0 {
		return []SearchResult{}, nil
	}
	if len(query) != m.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(query), m.dim)
	}

	q := normalize(query)
	results := make([]SearchResult, len(m.chunks))
	for i, v := range m.vectors {
		var dot float64
		for j := range v {
			dot += v[j] * q[j]
		}
		results[i] = SearchResult{Chunk: m.chunks[i], Score: dot}
	}
	return rankResults(results, k), nil
}

// Len returns the number of stored chunks.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}
