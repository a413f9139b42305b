package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/teilomillet/ragqa/rag/providers"
)

// EmbedderConfig holds the configuration for creating an Embedder.
type EmbedderConfig struct {
	Provider string
	Options  map[string]interface{}
}

// EmbedderOption is a function type for configuring the EmbedderConfig.
type EmbedderOption func(*EmbedderConfig)

// SetProvider sets the provider for the Embedder.
func SetProvider(provider string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Provider = provider
	}
}

// SetModel sets the model for the Embedder.
func SetModel(model string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["model"] = model
	}
}

// SetAPIKey sets the API key for the Embedder.
func SetAPIKey(apiKey string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["api_key"] = apiKey
	}
}

// SetAPIURL points the Embedder at a non-default endpoint.
func SetAPIURL(url string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["api_url"] = url
	}
}

// NewEmbedder creates an Embedder from the registered provider factories.
func NewEmbedder(opts ...EmbedderOption) (providers.Embedder, error) {
	config := &EmbedderConfig{
		Options: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.Provider == "" {
		return nil, &ConfigurationError{Field: "embedding_provider", Err: errors.New("provider must be specified")}
	}
	factory, err := providers.GetEmbedderFactory(config.Provider)
	if err != nil {
		return nil, &ConfigurationError{Field: "embedding_provider", Err: err}
	}
	embedder, err := factory(config.Options)
	if err != nil {
		return nil, &ConfigurationError{Field: "embedding_provider", Err: err}
	}
	return embedder, nil
}

// EmbeddedChunk pairs a chunk with its embedding.
type EmbeddedChunk struct {
	Chunk     Chunk
	Embedding []float64
}

// EmbeddingService embeds chunks and queries with a single embedder.
type EmbeddingService struct {
	embedder providers.Embedder
	logger   Logger
}

// NewEmbeddingService creates a new embedding service with a single embedder.
func NewEmbeddingService(embedder providers.Embedder, logger Logger) *EmbeddingService {
	if logger == nil {
		logger = GlobalLogger
	}
	return &EmbeddingService{embedder: embedder, logger: logger}
}

// EmbedChunks embeds every chunk. Embedders implementing
// providers.BatchEmbedder are called once; others once per chunk. Any
// failure aborts the whole call with an *EmbeddingServiceError.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, chunks []Chunk) ([]EmbeddedChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	s.logger.Info("Embedding chunks", "count", len(chunks))

	if batcher, ok := s.embedder.(providers.BatchEmbedder); ok {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, err := batcher.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, &EmbeddingServiceError{Op: "embed chunks", Err: err}
		}
		if len(vectors) != len(chunks) {
			return nil, &EmbeddingServiceError{Op: "embed chunks", Err: fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))}
		}
		embedded := make([]EmbeddedChunk, len(chunks))
		for i, chunk := range chunks {
			if len(vectors[i]) == 0 {
				return nil, &EmbeddingServiceError{Op: "embed chunks", Err: fmt.Errorf("empty embedding for chunk %d", chunk.Index)}
			}
			embedded[i] = EmbeddedChunk{Chunk: chunk, Embedding: vectors[i]}
		}
		return embedded, nil
	}

	embedded := make([]EmbeddedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := s.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, &EmbeddingServiceError{Op: fmt.Sprintf("embed chunk %d", chunk.Index), Err: errors.Unwrap(err)}
		}
		s.logger.Debug("Embedded chunk", "index", chunk.Index, "dimension", len(vector))
		embedded = append(embedded, EmbeddedChunk{Chunk: chunk, Embedding: vector})
	}
	return embedded, nil
}

// Embed returns the embedding of a single text, e.g. a query.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, &EmbeddingServiceError{Op: "embed text", Err: err}
	}
	if len(vector) == 0 {
		return nil, &EmbeddingServiceError{Op: "embed text", Err: errors.New("empty embedding")}
	}
	return vector, nil
}
