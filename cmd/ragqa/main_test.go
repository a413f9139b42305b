package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teilomillet/ragqa"
)

func TestRun_MissingCredential(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RAGQA_CONFIG", "")
	t.Setenv("OPENAI_API_KEY", "")

	err := run([]string{filepath.Join(t.TempDir(), "missing.txt")})
	var cfgErr *ragqa.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr), "got %v", err)
}
