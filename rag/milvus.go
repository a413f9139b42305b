package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	milvusIDField     = "chunk_index"
	milvusVectorField = "embedding"
)

// MilvusIndex keeps the chunks in a Milvus collection created for the
// lifetime of the index and dropped on Close. Vectors are normalized and
// searched by inner product, which equals cosine similarity.
type MilvusIndex struct {
	address string
	name    string
	client  client.Client
	chunks  []Chunk
	logger  Logger
}

// NewMilvusIndex creates an index for the Milvus server at address. No
// connection is made until Build.
func NewMilvusIndex(address, collection string, logger Logger) *MilvusIndex {
	if logger == nil {
		logger = GlobalLogger
	}
	if address == "" {
		address = "localhost:19530"
	}
	return &MilvusIndex{
		address: address,
		name:    milvusCollectionName(collection),
		logger:  logger,
	}
}

// milvusCollectionName makes a unique name made of letters, digits and
// underscores, as Milvus requires.
func milvusCollectionName(base string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, base)
	if clean == "" || (clean[0] >= '0' && clean[0] <= '9') {
		clean = "c_" + clean
	}
	return clean + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Build creates the collection, inserts every chunk and loads the HNSW index.
func (m *MilvusIndex) Build(ctx context.Context, chunks []EmbeddedChunk) error {
	if m.chunks != nil {
		return ErrIndexBuilt
	}
	if len(chunks) == 0 {
		m.chunks = []Chunk{}
		return nil
	}
	dim, err := checkDimensions(chunks)
	if err != nil {
		return err
	}

	c, err := client.NewClient(ctx, client.Config{Address: m.address})
	if err != nil {
		return fmt.Errorf("failed to connect to milvus at %s: %w", m.address, err)
	}
	m.client = c

	exists, err := c.HasCollection(ctx, m.name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := c.DropCollection(ctx, m.name); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}

	schema := entity.NewSchema().WithName(m.name).WithDescription("document chunks").
		WithField(entity.NewField().WithName(milvusIDField).WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true).WithIsAutoID(false)).
		WithField(entity.NewField().WithName(milvusVectorField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))
	if err := c.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", m.name, err)
	}

	ids := make([]int64, len(chunks))
	vectors := make([][]float32, len(chunks))
	stored := make([]Chunk, len(chunks))
	for i, ec := range chunks {
		ids[i] = int64(i)
		vectors[i] = toFloat32Slice(normalize(ec.Embedding))
		stored[i] = ec.Chunk
	}
	if _, err := c.Insert(ctx, m.name, "",
		entity.NewColumnInt64(milvusIDField, ids),
		entity.NewColumnFloatVector(milvusVectorField, dim, vectors),
	); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	if err := c.Flush(ctx, m.name, false); err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.IP, 16, 256)
	if err != nil {
		return err
	}
	if err := c.CreateIndex(ctx, m.name, milvusVectorField, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := c.LoadCollection(ctx, m.name, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	m.chunks = stored
	m.logger.Info("Indexed chunks in milvus", "collection", m.name, "count", len(stored))
	return nil
}

// Search runs an HNSW search for the k nearest chunks.
func (m *MilvusIndex) Search(ctx context.Context, query []float64, k int) ([]SearchResult, error) {
	if k <= 0 || len(m.chunks) == 0 {
		return []SearchResult{}, nil
	}
	if m.client == nil {
		return nil, errors.New("milvus index not built")
	}
	if k > len(m.chunks) {
		k = len(m.chunks)
	}

	sp, err := entity.NewIndexHNSWSearchParam(max(64, k))
	if err != nil {
		return nil, err
	}
	found, err := m.client.Search(ctx, m.name, nil, "", []string{milvusIDField},
		[]entity.Vector{entity.FloatVector(toFloat32Slice(normalize(query)))},
		milvusVectorField, entity.IP, k, sp)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", m.name, err)
	}

	var results []SearchResult
	for _, rs := range found {
		for i := 0; i < rs.ResultCount; i++ {
			id, err := rs.IDs.GetAsInt64(i)
			if err != nil {
				return nil, err
			}
			if id < 0 || int(id) >= len(m.chunks) {
				return nil, fmt.Errorf("unknown chunk id %d in %s", id, m.name)
			}
			results = append(results, SearchResult{Chunk: m.chunks[id], Score: float64(rs.Scores[i])})
		}
	}
	return rankResults(results, k), nil
}

// Len returns the number of stored chunks.
func (m *MilvusIndex) Len() int {
	return len(m.chunks)
}

// Close drops the collection and closes the connection.
func (m *MilvusIndex) Close() error {
	if m.client == nil {
		return nil
	}
	dropErr := m.client.DropCollection(context.Background(), m.name)
	return errors.Join(dropErr, m.client.Close())
}
