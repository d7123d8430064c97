package embedding

import (
	"context"
	"hash/fnv"

	"github.com/hyperjump/vecgate/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests and offline development.
// The same text always maps to the same unit-length vector.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding seeded from the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64() | 1
	emb := make([]float32, e.dimensions)
	for i := range emb {
		// xorshift64
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		emb[i] = float32(state%2000)/1000 - 1
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Name returns "mock".
func (e *MockEmbedder) Name() string {
	return "mock"
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
