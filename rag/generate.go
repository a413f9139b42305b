package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/teilomillet/gollm"
)

// DefaultTemperature favours deterministic, context-grounded answers.
const DefaultTemperature = 0.3

// TextGenerator sends a prompt to a language model and returns its answer.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorConfig configures a GollmGenerator.
type GeneratorConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float64
	// Endpoint overrides the server address of local providers (ollama).
	Endpoint string
}

// GollmGenerator generates text through gollm. Failed calls are not retried.
type GollmGenerator struct {
	llm   gollm.LLM
	model string
}

// NewGollmGenerator creates a generator for the configured provider and model.
func NewGollmGenerator(cfg GeneratorConfig) (*GollmGenerator, error) {
	if cfg.Provider == "" {
		return nil, &ConfigurationError{Field: "llm_provider", Err: errors.New("provider must be specified")}
	}
	opts := []gollm.ConfigOption{
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(cfg.Model),
		gollm.SetAPIKey(cfg.APIKey),
		gollm.SetTemperature(cfg.Temperature),
		gollm.SetMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, gollm.SetOllamaEndpoint(strings.TrimSuffix(cfg.Endpoint, "/")))
	}
	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, &ConfigurationError{Field: "llm_provider", Err: err}
	}
	// The ollama provider ignores SetTemperature; request options reach all providers.
	llm.SetOption("temperature", cfg.Temperature)
	return &GollmGenerator{llm: llm, model: cfg.Model}, nil
}

// Generate returns the model's answer to prompt. Failures are reported as
// *ModelServiceError.
func (g *GollmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.llm.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return "", &ModelServiceError{Model: g.model, Err: err}
	}
	return strings.TrimSpace(resp), nil
}
