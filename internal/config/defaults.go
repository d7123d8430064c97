package config

import "time"

// Provider and backend names.
const (
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"
	ProviderONNX        = "onnx"
	ProviderMock        = "mock"

	BackendQdrant = "qdrant"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	ModeIndependent = "independent"
	ModeConcatenate = "concatenate"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderHuggingFace
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case ProviderGemini:
			cfg.Embedding.Model = "text-embedding-004"
		default:
			cfg.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case ProviderGemini:
			cfg.Embedding.Dimensions = 768
		default:
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.TaskType == "" && cfg.Embedding.Provider == ProviderGemini {
		cfg.Embedding.TaskType = "SEMANTIC_SIMILARITY"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 1
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/vecgate/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}

	if cfg.Splitter.MaxSize == 0 {
		cfg.Splitter.MaxSize = 500
	}
	if cfg.Splitter.Overlap == nil {
		overlap := 100
		if overlap >= cfg.Splitter.MaxSize {
			overlap = cfg.Splitter.MaxSize / 5
		}
		cfg.Splitter.Overlap = IntPtr(overlap)
	}
	if cfg.Splitter.Mode == "" {
		cfg.Splitter.Mode = ModeIndependent
	}

	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = BackendQdrant
	}
	if cfg.VectorStore.Port == 0 {
		cfg.VectorStore.Port = 6334
	}
	if cfg.VectorStore.DatabasePath == "" {
		cfg.VectorStore.DatabasePath = "/usr/local/var/vecgate/data/vectors.db"
	}

	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 10
	}
}
