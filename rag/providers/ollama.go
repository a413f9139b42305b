package providers

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

func init() {
	RegisterEmbedder("ollama", false, NewOllamaEmbedder)
}

const defaultOllamaModel = "nomic-embed-text"

// OllamaEmbedder embeds text with a local Ollama server through chromem's
// Ollama embedding function.
type OllamaEmbedder struct {
	embed chromem.EmbeddingFunc
	model string
}

// NewOllamaEmbedder creates an embedder from config. "model" defaults to
// nomic-embed-text and "api_url" to chromem's default Ollama address.
func NewOllamaEmbedder(config map[string]interface{}) (Embedder, error) {
	model := stringOption(config, "model")
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaEmbedder{
		embed: chromem.NewEmbeddingFuncOllama(model, stringOption(config, "api_url")),
		model: model,
	}, nil
}

// Embed returns the embedding of text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	v, err := e.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama %s: %w", e.model, err)
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out, nil
}
