package config

import (
	"errors"
	"io/fs"
	"strconv"

	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHFAPIKey     = "HF_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvQdrantURL    = "Q_URL"
	EnvQdrantAPIKey = "Q_API_KEY"
	EnvQdrantPort   = "Q_PORT"
)

// LoadDotEnv loads variables from the given .env files (default ".env") into the
// process environment. Variables already set are not overridden and missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays secrets and endpoints from the environment onto cfg.
// Environment values win over the config file.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	provider := cfg.Embedding.Provider
	if provider == "" {
		provider = ProviderHuggingFace
	}
	switch provider {
	case ProviderHuggingFace:
		if v := getenv(EnvHFAPIKey); v != "" {
			cfg.Embedding.APIKey = v
		}
	case ProviderGemini:
		if v := getenv(EnvGeminiAPIKey); v != "" {
			cfg.Embedding.APIKey = v
		}
	}
	if v := getenv(EnvQdrantURL); v != "" {
		cfg.VectorStore.URL = v
	}
	if v := getenv(EnvQdrantAPIKey); v != "" {
		cfg.VectorStore.APIKey = v
	}
	if v := getenv(EnvQdrantPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.VectorStore.Port = port
		}
	}
}

// Validate checks cross-field constraints. It returns an invalid_config error
// describing the first problem found.
func Validate(cfg *Config) error {
	switch cfg.Embedding.Provider {
	case ProviderHuggingFace, ProviderGemini:
		if cfg.Embedding.APIKey == "" {
			return errortypes.InvalidConfig("embedding provider %q requires an API key", cfg.Embedding.Provider)
		}
	case ProviderONNX, ProviderMock:
	default:
		return errortypes.InvalidConfig("unknown embedding provider %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return errortypes.InvalidConfig("embedding dimensions must be positive, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Concurrency < 1 {
		return errortypes.InvalidConfig("embedding concurrency must be at least 1, got %d", cfg.Embedding.Concurrency)
	}
	if cfg.Splitter.MaxSize <= 0 {
		return errortypes.InvalidConfig("splitter max_size must be positive, got %d", cfg.Splitter.MaxSize)
	}
	if overlap := cfg.Splitter.OverlapSize(); overlap < 0 || overlap >= cfg.Splitter.MaxSize {
		return errortypes.InvalidConfig("splitter overlap %d must be in [0, %d)", overlap, cfg.Splitter.MaxSize)
	}
	switch cfg.Splitter.Mode {
	case ModeIndependent, ModeConcatenate:
	default:
		return errortypes.InvalidConfig("unknown splitter mode %q", cfg.Splitter.Mode)
	}
	switch cfg.VectorStore.Backend {
	case BackendQdrant:
		if cfg.VectorStore.URL == "" {
			return errortypes.InvalidConfig("qdrant backend requires a url (set %s)", EnvQdrantURL)
		}
	case BackendSQLite:
		if cfg.VectorStore.DatabasePath == "" {
			return errortypes.InvalidConfig("sqlite backend requires database_path")
		}
	case BackendMemory:
	default:
		return errortypes.InvalidConfig("unknown vector store backend %q", cfg.VectorStore.Backend)
	}
	if cfg.Search.TopK <= 0 {
		return errortypes.InvalidConfig("search top_k must be positive, got %d", cfg.Search.TopK)
	}
	return nil
}
