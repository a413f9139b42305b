package rag

import "fmt"

// ConfigurationError reports a missing or invalid setting. It is raised at
// startup, before any document is read.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FileAccessError reports a document that does not exist, cannot be read
// or is not valid text.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot load document %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// EmbeddingServiceError reports a failed call to the embedding service,
// either while building the index or while embedding a query.
type EmbeddingServiceError struct {
	Op  string
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %s: %v", e.Op, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// ModelServiceError reports a failed call to the language model.
type ModelServiceError struct {
	Model string
	Err   error
}

func (e *ModelServiceError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("model service: %v", e.Err)
	}
	return fmt.Sprintf("model service (%s): %v", e.Model, e.Err)
}

func (e *ModelServiceError) Unwrap() error { return e.Err }
