package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// SearchResult is a chunk returned by a similarity search.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// VectorIndex stores (chunk, embedding) pairs and finds the chunks nearest
// to a query vector by cosine similarity. An index is built once and is
// read-only afterwards.
type VectorIndex interface {
	// Build stores all embedded chunks. It fails if the index was already built.
	Build(ctx context.Context, chunks []EmbeddedChunk) error
	// Search returns at most k results, best first, ties in chunk order.
	// k <= 0 and an empty index give an empty result.
	Search(ctx context.Context, query []float64, k int) ([]SearchResult, error)
	// Len returns the number of stored chunks.
	Len() int
	Close() error
}

// ErrIndexBuilt is returned by Build on an index that already holds data.
var ErrIndexBuilt = errors.New("vector index already built")

// IndexConfig selects and configures a VectorIndex implementation.
type IndexConfig struct {
	// Type is "chromem" (default), "memory" or "milvus".
	Type string
	// Collection is the base name of the collection holding the chunks.
	Collection string
	// Address of the Milvus server.
	Address string
	Logger  Logger
}

// NewVectorIndex creates an empty index of the configured type.
func NewVectorIndex(cfg IndexConfig) (VectorIndex, error) {
	if cfg.Logger == nil {
		cfg.Logger = GlobalLogger
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	switch cfg.Type {
	case "", "chromem":
		return NewChromemIndex(cfg.Collection, cfg.Logger)
	case "memory":
		return NewMemoryIndex(), nil
	case "milvus":
		return NewMilvusIndex(cfg.Address, cfg.Collection, cfg.Logger), nil
	default:
		return nil, &ConfigurationError{Field: "index", Err: fmt.Errorf("unsupported index type: %s", cfg.Type)}
	}
}

// rankResults orders results by descending score, breaking ties by chunk
// order, and keeps the first k.
func rankResults(results []SearchResult, k int) []SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// checkDimensions verifies every embedding is non-empty and of the same
// length, and returns that length.
func checkDimensions(chunks []EmbeddedChunk) (int, error) {
	dim := len(chunks[0].Embedding)
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return 0, fmt.Errorf("chunk %d has no embedding", c.Chunk.Index)
		}
		if len(c.Embedding) != dim {
			return 0, fmt.Errorf("chunk %d has dimension %d, expected %d", c.Chunk.Index, len(c.Embedding), dim)
		}
	}
	return dim, nil
}

// normalize returns v scaled to unit length. The zero vector is returned as is.
func normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func toFloat32Slice(v []float64) []float32 {
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(val)
	}
	return result
}
