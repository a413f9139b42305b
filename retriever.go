package ragqa

import (
	"context"
	"fmt"

	"github.com/teilomillet/ragqa/rag"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// Retriever embeds a query with the same service used for the chunks and
// searches the index for the nearest ones.
type Retriever struct {
	embedder *rag.EmbeddingService
	index    rag.VectorIndex
	topK     int
	logger   rag.Logger
}

// NewRetriever creates a Retriever returning topK results per query.
// A non-positive topK falls back to DefaultTopK.
func NewRetriever(embedder *rag.EmbeddingService, index rag.VectorIndex, topK int, logger rag.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = rag.GlobalLogger
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns the chunks most similar to query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]rag.SearchResult, error) {
	return r.RetrieveK(ctx, query, r.topK)
}

// RetrieveK is Retrieve with an explicit result count. An empty index
// yields an empty result without calling the embedding service.
func (r *Retriever) RetrieveK(ctx context.Context, query string, k int) ([]rag.SearchResult, error) {
	if r.index.Len() == 0 || k <= 0 {
		return []rag.SearchResult{}, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	r.logger.Debug("Retrieved chunks", "query", query, "count", len(results))
	return results, nil
}

// TopK returns the default number of results per query.
func (r *Retriever) TopK() int {
	return r.topK
}
