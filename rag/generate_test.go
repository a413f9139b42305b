package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGollmGenerator_RequiresProvider(t *testing.T) {
	_, err := NewGollmGenerator(GeneratorConfig{Model: "gpt-4o-mini", Temperature: DefaultTemperature})
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

// ollamaServer answers /api/generate with reply, or fails with status when
// it is not 200. The last request body is stored in got.
func ollamaServer(t *testing.T, status int, reply string, got *map[string]interface{}, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		if status != http.StatusOK {
			http.Error(w, "model not loaded", status)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"model": "llama3", "response": reply, "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGollmGenerator_Generate(t *testing.T) {
	var body map[string]interface{}
	var calls int32
	srv := ollamaServer(t, http.StatusOK, "  Paris is the capital.\n", &body, &calls)

	g, err := NewGollmGenerator(GeneratorConfig{
		Provider:    "ollama",
		Model:       "llama3",
		Temperature: DefaultTemperature,
		Endpoint:    srv.URL + "/",
	})
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital.", answer)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "What is the capital of France?", body["prompt"])
	assert.Equal(t, "llama3", body["model"])
	assert.InDelta(t, DefaultTemperature, body["temperature"], 1e-9)
}

func TestGollmGenerator_ServiceFailure(t *testing.T) {
	var body map[string]interface{}
	var calls int32
	srv := ollamaServer(t, http.StatusInternalServerError, "", &body, &calls)

	g, err := NewGollmGenerator(GeneratorConfig{
		Provider:    "ollama",
		Model:       "llama3",
		Temperature: 0.9,
		Endpoint:    srv.URL,
	})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "Question?")
	var svcErr *ModelServiceError
	require.True(t, errors.As(err, &svcErr), "got %v", err)
	assert.Equal(t, "llama3", svcErr.Model)
	assert.NotNil(t, svcErr.Unwrap())

	// Failed calls are not retried.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.InDelta(t, 0.9, body["temperature"], 1e-9)
}

func TestModelServiceError(t *testing.T) {
	cause := errors.New("rate limited")
	err := error(&ModelServiceError{Model: "gpt-4o-mini", Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "model service (gpt-4o-mini): rate limited", err.Error())
}
