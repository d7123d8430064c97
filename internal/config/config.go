// Package config provides configuration loading and structs for the vecgate server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Splitter    SplitterConfig    `yaml:"splitter"`
	VectorStore VectorStoreConfig `yaml:"vectorstore"`
	Search      SearchConfig      `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of huggingface, gemini, onnx, mock.
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// TaskType is passed to providers that accept a hint (gemini).
	TaskType string `yaml:"task_type"`
	// APIKey is normally supplied through HF_API_KEY or GEMINI_API_KEY.
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency bounds parallel embedding calls within one request; 1 is sequential.
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// CacheSize enables an LRU cache of embeddings by text when positive.
	CacheSize int `yaml:"cache_size"`

	// ONNX settings.
	ModelPath string `yaml:"model_path"`
	MaxTokens int    `yaml:"max_tokens"`
}

// SplitterConfig holds chunking settings.
type SplitterConfig struct {
	MaxSize int `yaml:"max_size"`
	// Overlap is nil when unset so that an explicit 0 survives defaulting.
	Overlap *int   `yaml:"overlap"`
	Mode    string `yaml:"mode"`
}

// OverlapSize returns the configured overlap, or 0 when unset.
func (s SplitterConfig) OverlapSize() int {
	if s.Overlap == nil {
		return 0
	}
	return *s.Overlap
}

// IntPtr returns a pointer to v, for optional integer settings.
func IntPtr(v int) *int {
	return &v
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Backend is one of qdrant, sqlite, memory.
	Backend          string `yaml:"backend"`
	URL              string `yaml:"url"`
	Port             int    `yaml:"port"`
	APIKey           string `yaml:"api_key"`
	CollectionPrefix string `yaml:"collection_prefix"`
	DatabasePath     string `yaml:"database_path"`
	SnapshotPath     string `yaml:"snapshot_path"`
}

// SearchConfig holds query settings.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// Load reads and parses the config file at path, applies defaults and
// environment overrides, and expands paths. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	ApplyEnv(&cfg, os.Getenv)
	ApplyDefaults(&cfg)

	cfg.VectorStore.DatabasePath = expandPath(cfg.VectorStore.DatabasePath, configDir)
	cfg.VectorStore.SnapshotPath = expandPath(cfg.VectorStore.SnapshotPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
