package ragqa

import "github.com/teilomillet/ragqa/rag"

// Error types returned by the pipeline. Use errors.As to tell them apart.
type (
	// ConfigurationError: missing credential or invalid setting, at startup.
	ConfigurationError = rag.ConfigurationError
	// FileAccessError: the document cannot be loaded.
	FileAccessError = rag.FileAccessError
	// EmbeddingServiceError: a chunk or a query could not be embedded.
	EmbeddingServiceError = rag.EmbeddingServiceError
	// ModelServiceError: the language model call failed.
	ModelServiceError = rag.ModelServiceError
)
