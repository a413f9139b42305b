package rag

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilvusCollectionName(t *testing.T) {
	valid := regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	for _, base := range []string{"documents", "my-docs.v2", "2024 notes", ""} {
		name := milvusCollectionName(base)
		assert.Regexp(t, valid, name, "base %q", base)
	}
	assert.NotEqual(t, milvusCollectionName("documents"), milvusCollectionName("documents"))
}

func TestMilvusIndex_EmptyBuildNeedsNoServer(t *testing.T) {
	idx := NewMilvusIndex("", "documents", NewLogger(LogLevelOff))
	require.NoError(t, idx.Build(context.Background(), nil))

	results, err := idx.Search(context.Background(), []float64{1}, 4)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, idx.Close())
}
