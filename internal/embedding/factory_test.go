package embedding

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/errortypes"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EmbeddingConfig
		wantName string
		wantType string
	}{
		{"mock", config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8}, "mock", "*embedding.MockEmbedder"},
		{"huggingface", config.EmbeddingConfig{Provider: config.ProviderHuggingFace, APIKey: "k", Model: "m", Dimensions: 384}, "huggingface", "*embedding.HuggingFaceEmbedder"},
		{"cached", config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8, CacheSize: 4}, "mock", "*embedding.CachedEmbedder"},
		{"rate limited", config.EmbeddingConfig{Provider: config.ProviderMock, Dimensions: 8, RequestsPerSecond: 5}, "mock", "*embedding.RateLimitedEmbedder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(context.Background(), &tt.cfg, zap.NewNop())
			if err != nil {
				t.Fatal(err)
			}
			defer e.Close()
			if e.Name() != tt.wantName {
				t.Errorf("Name: got %q, want %q", e.Name(), tt.wantName)
			}
			if got := fmt.Sprintf("%T", e); got != tt.wantType {
				t.Errorf("type: got %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestNew_unknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.EmbeddingConfig{Provider: "word2vec"}, nil)
	if !errortypes.Is(err, errortypes.KindInvalidConfig) {
		t.Errorf("expected invalid_config, got %v", err)
	}
}

func TestRateLimitedEmbedder_cancelledWait(t *testing.T) {
	e := NewRateLimitedEmbedder(NewMockEmbedder(4), 0.001)
	if _, err := e.Embed(context.Background(), "first"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := e.Embed(ctx, "second"); err == nil {
		t.Error("expected the second call to fail waiting for a token")
	}
}

func TestNew_onnxMissingModel(t *testing.T) {
	cfg := &config.EmbeddingConfig{
		Provider:   config.ProviderONNX,
		ModelPath:  t.TempDir() + "/missing.onnx",
		Dimensions: 384,
		MaxTokens:  16,
	}
	e, err := New(context.Background(), cfg, zap.NewNop())
	if err == nil {
		_ = e.Close()
		t.Fatal("expected error for missing model")
	}
	if !errortypes.Is(err, errortypes.KindInvalidConfig) {
		t.Errorf("expected invalid_config, got %v", err)
	}
}
