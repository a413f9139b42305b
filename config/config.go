// Package config loads the settings of the question-answering pipeline.
//
// Settings are combined in the following order (highest to lowest precedence):
//  1. Environment variables, then a .env file in the working directory
//  2. Configuration file (JSON)
//  3. Default values
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/teilomillet/ragqa/rag"
	"github.com/teilomillet/ragqa/rag/providers"
)

// Config holds all settings of a pipeline. It is passed explicitly to the
// pipeline constructor; nothing is read from or written to the process
// environment after Load.
type Config struct {
	// Credential for the embedding and language model services.
	APIKey string `json:"api_key" env:"OPENAI_API_KEY"`

	// Embedding service
	EmbeddingProvider string `json:"embedding_provider" env:"RAGQA_EMBEDDING_PROVIDER"`
	EmbeddingModel    string `json:"embedding_model" env:"RAGQA_EMBEDDING_MODEL"`
	EmbeddingURL      string `json:"embedding_url" env:"RAGQA_EMBEDDING_URL"`

	// Language model
	LLMProvider string  `json:"llm_provider" env:"RAGQA_LLM_PROVIDER"`
	LLMModel    string  `json:"llm_model" env:"RAGQA_LLM_MODEL"`
	Temperature float64 `json:"temperature" env:"RAGQA_TEMPERATURE"`
	LLMURL      string  `json:"llm_url" env:"RAGQA_LLM_URL"`

	// Chunking
	ChunkSize     int    `json:"chunk_size" env:"RAGQA_CHUNK_SIZE"`
	ChunkOverlap  int    `json:"chunk_overlap" env:"RAGQA_CHUNK_OVERLAP"`
	LengthUnit    string `json:"length_unit" env:"RAGQA_LENGTH_UNIT"`
	TokenEncoding string `json:"token_encoding" env:"RAGQA_TOKEN_ENCODING"`

	// Retrieval
	TopK                    int    `json:"top_k" env:"RAGQA_TOP_K"`
	IndexType               string `json:"index" env:"RAGQA_INDEX"`
	Collection              string `json:"collection" env:"RAGQA_COLLECTION"`
	MilvusAddress           string `json:"milvus_address" env:"RAGQA_MILVUS_ADDRESS"`
	SeparateSourceRetrieval bool   `json:"separate_source_retrieval" env:"RAGQA_SEPARATE_SOURCE_RETRIEVAL"`

	// Documents
	Document  string `json:"document" env:"RAGQA_DOCUMENT"`
	EnablePDF bool   `json:"enable_pdf" env:"RAGQA_ENABLE_PDF"`

	// System settings. A zero Timeout means no deadline. In the JSON file
	// it is a duration string such as "30s", as in the environment.
	Timeout  time.Duration `json:"timeout" env:"RAGQA_TIMEOUT"`
	LogLevel rag.LogLevel  `json:"log_level" env:"RAGQA_LOG_LEVEL"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		LLMProvider:       "openai",
		LLMModel:          "gpt-4o-mini",
		Temperature:       rag.DefaultTemperature,
		ChunkSize:         500,
		ChunkOverlap:      100,
		LengthUnit:        "runes",
		TokenEncoding:     "cl100k_base",
		TopK:              4,
		IndexType:         "chromem",
		Collection:        "documents",
		MilvusAddress:     "localhost:19530",
		Document:          "document.txt",
		LogLevel:          rag.LogLevelWarn,
	}
}

// Load builds a Config from defaults, the first configuration file found
// and the environment.
//
// Configuration file search paths:
//  1. $RAGQA_CONFIG
//  2. ~/.ragqa/config.json
//  3. ~/.config/ragqa/config.json
//  4. ./ragqa.json
//
// Variables from a .env file in the working directory are read as if they
// were set in the environment, but real environment variables win and the
// process environment is left untouched.
//
// Load does not validate the result; call Validate before use.
func Load() (*Config, error) {
	cfg := Default()

	environment, err := readEnvironment()
	if err != nil {
		return nil, err
	}

	path, err := findConfigFile(environment)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return nil, &rag.ConfigurationError{Field: "environment", Err: err}
	}
	return &cfg, nil
}

// readEnvironment returns the .env variables overlaid with os.Environ.
func readEnvironment() (map[string]string, error) {
	environment, err := godotenv.Read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &rag.ConfigurationError{Field: ".env", Err: err}
		}
		environment = make(map[string]string)
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environment[k] = v
		}
	}
	return environment, nil
}

func findConfigFile(environment map[string]string) (string, error) {
	if explicit := environment["RAGQA_CONFIG"]; explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", &rag.ConfigurationError{Field: "RAGQA_CONFIG", Err: err}
		}
		return explicit, nil
	}

	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".ragqa", "config.json"),
			filepath.Join(home, ".config", "ragqa", "config.json"),
		)
	}
	candidates = append(candidates, "ragqa.json")

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &rag.ConfigurationError{Field: path, Err: err}
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return &rag.ConfigurationError{Field: path, Err: err}
	}
	return nil
}

// UnmarshalJSON reads a configuration file. The timeout is a duration
// string; a bare number is taken as nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		Timeout json.RawMessage `json:"timeout"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Timeout) == 0 || string(aux.Timeout) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(aux.Timeout, &text); err == nil {
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = d
		return nil
	}
	var ns int64
	if err := json.Unmarshal(aux.Timeout, &ns); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	c.Timeout = time.Duration(ns)
	return nil
}

// MarshalJSON writes the timeout as a duration string.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(struct {
		plain
		Timeout string `json:"timeout"`
	}{plain: plain(c), Timeout: c.Timeout.String()})
}

// RequiresAPIKey reports whether the configured services need a credential.
func (c *Config) RequiresAPIKey() bool {
	return providers.RequiresAPIKey(c.EmbeddingProvider) || !strings.EqualFold(c.LLMProvider, "ollama")
}

// Validate checks the configuration and returns a *rag.ConfigurationError
// for the first problem found. The credential is checked first.
func (c *Config) Validate() error {
	if c.RequiresAPIKey() && strings.TrimSpace(c.APIKey) == "" {
		return &rag.ConfigurationError{Field: "OPENAI_API_KEY", Err: errors.New("API key is not set")}
	}

	switch {
	case c.ChunkSize <= 0:
		return &rag.ConfigurationError{Field: "chunk_size", Err: fmt.Errorf("must be positive, got %d", c.ChunkSize)}
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return &rag.ConfigurationError{Field: "chunk_overlap", Err: fmt.Errorf("must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)}
	case c.TopK <= 0:
		return &rag.ConfigurationError{Field: "top_k", Err: fmt.Errorf("must be positive, got %d", c.TopK)}
	case c.Temperature < 0 || c.Temperature > 2:
		return &rag.ConfigurationError{Field: "temperature", Err: fmt.Errorf("must be in [0, 2], got %g", c.Temperature)}
	case c.Timeout < 0:
		return &rag.ConfigurationError{Field: "timeout", Err: fmt.Errorf("must not be negative, got %s", c.Timeout)}
	}

	switch strings.ToLower(c.LengthUnit) {
	case "", "runes", "chars", "characters", "words", "tokens":
	default:
		return &rag.ConfigurationError{Field: "length_unit", Err: fmt.Errorf("unknown unit %q", c.LengthUnit)}
	}

	switch c.IndexType {
	case "", "chromem", "memory", "milvus":
	default:
		return &rag.ConfigurationError{Field: "index", Err: fmt.Errorf("unsupported index type %q", c.IndexType)}
	}

	if c.EmbeddingProvider == "" {
		return &rag.ConfigurationError{Field: "embedding_provider", Err: errors.New("must be set")}
	}
	if c.LLMProvider == "" {
		return &rag.ConfigurationError{Field: "llm_provider", Err: errors.New("must be set")}
	}
	return nil
}

// Save persists the configuration to a JSON file at path, creating parent
// directories as needed. The API key is not written.
func (c *Config) Save(path string) error {
	redacted := *c
	redacted.APIKey = ""
	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
