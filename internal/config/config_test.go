package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
embedding:
  provider: mock
splitter:
  max_size: 200
  overlap: 20
  mode: concatenate
vectorstore:
  backend: sqlite
  database_path: "./data/vectors.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Splitter.MaxSize != 200 || cfg.Splitter.OverlapSize() != 20 || cfg.Splitter.Mode != ModeConcatenate {
		t.Errorf("unexpected splitter config: %+v", cfg.Splitter)
	}
	wantDB := filepath.Join(dir, "data", "vectors.db")
	if cfg.VectorStore.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.VectorStore.DatabasePath, wantDB)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: got %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("default request timeout: got %s", cfg.Server.RequestTimeout)
	}
	if cfg.Embedding.Provider != ProviderHuggingFace || cfg.Embedding.Dimensions != 384 {
		t.Errorf("default embedding: got %+v", cfg.Embedding)
	}
	if cfg.Embedding.Concurrency != 1 {
		t.Errorf("embedding calls should be sequential by default, got concurrency %d", cfg.Embedding.Concurrency)
	}
	if cfg.Splitter.MaxSize != 500 || cfg.Splitter.OverlapSize() != 100 || cfg.Splitter.Mode != ModeIndependent {
		t.Errorf("default splitter: got %+v", cfg.Splitter)
	}
	if cfg.VectorStore.Backend != BackendQdrant || cfg.VectorStore.Port != 6334 {
		t.Errorf("default vectorstore: got %+v", cfg.VectorStore)
	}
	if cfg.Search.TopK != 10 {
		t.Errorf("default top_k: got %d", cfg.Search.TopK)
	}
}

func TestApplyDefaults_gemini(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Provider: ProviderGemini}}
	ApplyDefaults(cfg)
	if cfg.Embedding.Model != "text-embedding-004" || cfg.Embedding.Dimensions != 768 {
		t.Errorf("gemini defaults: got %+v", cfg.Embedding)
	}
	if cfg.Embedding.TaskType != "SEMANTIC_SIMILARITY" {
		t.Errorf("gemini task type: got %q", cfg.Embedding.TaskType)
	}
}

func TestApplyDefaults_overlapFitsSmallMaxSize(t *testing.T) {
	cfg := &Config{Splitter: SplitterConfig{MaxSize: 50}}
	ApplyDefaults(cfg)
	if cfg.Splitter.OverlapSize() != 10 {
		t.Errorf("overlap: got %d, want 10", cfg.Splitter.OverlapSize())
	}
}

func TestLoad_explicitZeroOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedding:
  provider: mock
splitter:
  max_size: 200
  overlap: 0
vectorstore:
  backend: memory
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Splitter.Overlap == nil || *cfg.Splitter.Overlap != 0 {
		t.Fatalf("overlap: got %v, want explicit 0", cfg.Splitter.Overlap)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvHFAPIKey:     "hf-secret",
		EnvGeminiAPIKey: "gemini-secret",
		EnvQdrantURL:    "https://qdrant.example.com",
		EnvQdrantAPIKey: "q-secret",
		EnvQdrantPort:   "6333",
	}
	getenv := func(k string) string { return env[k] }

	cfg := &Config{}
	ApplyEnv(cfg, getenv)
	if cfg.Embedding.APIKey != "hf-secret" {
		t.Errorf("api key: got %q, want HF key for default provider", cfg.Embedding.APIKey)
	}
	if cfg.VectorStore.URL != "https://qdrant.example.com" || cfg.VectorStore.APIKey != "q-secret" || cfg.VectorStore.Port != 6333 {
		t.Errorf("vectorstore: got %+v", cfg.VectorStore)
	}

	gcfg := &Config{Embedding: EmbeddingConfig{Provider: ProviderGemini, APIKey: "from-file"}}
	ApplyEnv(gcfg, getenv)
	if gcfg.Embedding.APIKey != "gemini-secret" {
		t.Errorf("gemini api key: got %q", gcfg.Embedding.APIKey)
	}
}

func TestApplyEnv_badPortIgnored(t *testing.T) {
	cfg := &Config{VectorStore: VectorStoreConfig{Port: 1234}}
	ApplyEnv(cfg, func(k string) string {
		if k == EnvQdrantPort {
			return "not-a-port"
		}
		return ""
	})
	if cfg.VectorStore.Port != 1234 {
		t.Errorf("port: got %d", cfg.VectorStore.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("VECGATE_TEST_DOTENV=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("VECGATE_TEST_DOTENV") })
	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("VECGATE_TEST_DOTENV"); got != "loaded" {
		t.Errorf("env: got %q", got)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Embedding:   EmbeddingConfig{Provider: ProviderMock},
			VectorStore: VectorStoreConfig{Backend: BackendMemory},
		}
		ApplyDefaults(cfg)
		return cfg
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"overlap equals max", func(c *Config) { c.Splitter.Overlap = IntPtr(c.Splitter.MaxSize) }, true},
		{"negative overlap", func(c *Config) { c.Splitter.Overlap = IntPtr(-1) }, true},
		{"zero max size", func(c *Config) { c.Splitter.MaxSize = 0 }, true},
		{"unknown mode", func(c *Config) { c.Splitter.Mode = "sideways" }, true},
		{"hf without key", func(c *Config) { c.Embedding.Provider = ProviderHuggingFace }, true},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "word2vec" }, true},
		{"qdrant without url", func(c *Config) { c.VectorStore.Backend = BackendQdrant }, true},
		{"unknown backend", func(c *Config) { c.VectorStore.Backend = "pinecone" }, true},
		{"zero concurrency", func(c *Config) { c.Embedding.Concurrency = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errortypes.Is(err, errortypes.KindInvalidConfig) {
				t.Errorf("expected invalid_config, got %v", err)
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:      ServerConfig{Host: "localhost", Port: 9090},
		VectorStore: VectorStoreConfig{Backend: BackendMemory},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 || loaded.VectorStore.Backend != BackendMemory {
		t.Errorf("loaded: got %+v", loaded)
	}
}
