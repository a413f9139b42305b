package rag

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// ChromemIndex keeps the chunks in an in-memory chromem-go collection.
// Embeddings are computed by the pipeline and handed over precomputed.
type ChromemIndex struct {
	db     *chromem.DB
	col    *chromem.Collection
	name   string
	chunks []Chunk
	logger Logger
}

// errNoEmbeddingFunc is returned if chromem ever tries to embed on its own.
var errNoEmbeddingFunc = errors.New("chromem index only accepts precomputed embeddings")

func precomputedOnly(ctx context.Context, text string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// NewChromemIndex creates an in-memory database holding one collection
// named after collection and a random suffix.
func NewChromemIndex(collection string, logger Logger) (*ChromemIndex, error) {
	if logger == nil {
		logger = GlobalLogger
	}
	db := chromem.NewDB()
	name := collection + "-" + uuid.NewString()
	col, err := db.CreateCollection(name, map[string]string{}, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	logger.Debug("Created chromem collection", "name", name)
	return &ChromemIndex{
		db:     db,
		col:    col,
		name:   name,
		logger: logger,
	}, nil
}

// Build adds every chunk to the collection.
func (c *ChromemIndex) Build(ctx context.Context, chunks []EmbeddedChunk) error {
	if c.chunks != nil {
		return ErrIndexBuilt
	}
	if len(chunks) == 0 {
		c.chunks = []Chunk{}
		return nil
	}
	if _, err := checkDimensions(chunks); err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	stored := make([]Chunk, len(chunks))
	for i, ec := range chunks {
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   ec.Chunk.Text,
			Metadata:  map[string]string{"chunk_index": strconv.Itoa(ec.Chunk.Index)},
			Embedding: toFloat32Slice(normalize(ec.Embedding)),
		}
		stored[i] = ec.Chunk
	}
	if err := c.col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add documents to %s: %w", c.name, err)
	}
	c.chunks = stored
	c.logger.Debug("Indexed chunks", "collection", c.name, "count", len(stored))
	return nil
}

// Search queries the whole collection so that ties can be ordered by chunk
// position before the result is cut to k.
func (c *ChromemIndex) Search(ctx context.Context, query []float64, k int) ([]SearchResult, error) {
	n := c.col.Count()
	if k <= 0 || n == 0 {
		return []SearchResult{}, nil
	}

	found, err := c.col.QueryEmbedding(ctx, toFloat32Slice(normalize(query)), n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", c.name, err)
	}

	results := make([]SearchResult, 0, len(found))
	for _, r := range found {
		i, err := strconv.Atoi(r.ID)
		if err != nil || i < 0 || i >= len(c.chunks) {
			return nil, fmt.Errorf("unknown document id %q in %s", r.ID, c.name)
		}
		results = append(results, SearchResult{Chunk: c.chunks[i], Score: float64(r.Similarity)})
	}
	return rankResults(results, k), nil
}

// Len returns the number of stored chunks.
func (c *ChromemIndex) Len() int {
	return c.col.Count()
}

// Close drops the collection.
func (c *ChromemIndex) Close() error {
	return c.db.DeleteCollection(c.name)
}
