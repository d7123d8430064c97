// Package embedding provides text embedding clients for remote providers and a local ONNX model.
package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

// Embedder produces one fixed-length vector per text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	// Name identifies the provider in logs and errors.
	Name() string
	Close() error
}

// checkDimensions returns an embedding_provider error when vec does not have
// the configured dimensionality.
func checkDimensions(provider string, vec []float32, want int) error {
	if len(vec) == 0 {
		return errortypes.EmbeddingProvider(provider, 0, "empty embedding in response", nil)
	}
	if want > 0 && len(vec) != want {
		return errortypes.EmbeddingProvider(provider, 0,
			fmt.Sprintf("embedding has %d dimensions, expected %d", len(vec), want), nil)
	}
	return nil
}
