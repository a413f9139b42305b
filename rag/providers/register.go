// Package providers implements the embedding services the pipeline can use.
// Providers register a factory under a name; the pipeline picks one by the
// name found in its configuration.
package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders able to embed several texts in
// one call. The returned vectors follow the order of texts.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedderFactory creates an Embedder from provider options such as
// "api_key", "model" and "api_url".
type EmbedderFactory func(config map[string]interface{}) (Embedder, error)

// factoryEntry keeps whether the provider needs an API key, so that
// configuration can be validated before any factory runs.
type factoryEntry struct {
	factory     EmbedderFactory
	requiresKey bool
}

var (
	embedderFactories = make(map[string]factoryEntry)
	mu                sync.RWMutex
)

// RegisterEmbedder registers a factory under name, replacing any previous one.
func RegisterEmbedder(name string, requiresKey bool, factory EmbedderFactory) {
	mu.Lock()
	defer mu.Unlock()
	embedderFactories[name] = factoryEntry{factory: factory, requiresKey: requiresKey}
}

// GetEmbedderFactory returns the factory registered under name.
func GetEmbedderFactory(name string) (EmbedderFactory, error) {
	mu.RLock()
	defer mu.RUnlock()
	entry, ok := embedderFactories[name]
	if !ok {
		return nil, fmt.Errorf("embedder not found: %s", name)
	}
	return entry.factory, nil
}

// RequiresAPIKey reports whether the provider registered under name needs
// a credential. Unknown providers report false.
func RequiresAPIKey(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return embedderFactories[name].requiresKey
}

// List returns the registered provider names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(embedderFactories))
	for name := range embedderFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stringOption(config map[string]interface{}, key string) string {
	v, _ := config[key].(string)
	return v
}
