package embedding

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/errortypes"
)

// New builds the embedder selected by cfg.Provider, wrapped with a cache when
// cfg.CacheSize is positive and a rate limiter when cfg.RequestsPerSecond is positive.
func New(ctx context.Context, cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case config.ProviderHuggingFace:
		e = NewHuggingFaceEmbedder(cfg.APIKey, cfg.Model, cfg.Dimensions, cfg.Timeout, WithBaseURL(cfg.BaseURL))
	case config.ProviderGemini:
		e, err = NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.TaskType, cfg.BaseURL, cfg.Dimensions, cfg.Timeout)
	case config.ProviderONNX:
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case config.ProviderMock:
		e = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, errortypes.InvalidConfig("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerSecond > 0 {
		e = NewRateLimitedEmbedder(e, cfg.RequestsPerSecond)
	}
	if cfg.CacheSize > 0 {
		cached, err := NewCachedEmbedder(e, cfg.CacheSize)
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		e = cached
	}
	logger.Info("embedding provider ready",
		zap.String("provider", e.Name()),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", e.Dimensions()),
		zap.Int("cache_size", cfg.CacheSize),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond))
	return e, nil
}
