package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/cli"
	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/extract"
	"github.com/hyperjump/vecgate/internal/models"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after texts are moved first",
			args:     []string{"The cat sat.", "-user", "alice"},
			expected: []string{"-user", "alice", "The cat sat."},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-user", "alice", "The cat sat."},
			expected: []string{"-user", "alice", "The cat sat."},
		},
		{
			name:     "texts only returns unchanged",
			args:     []string{"The cat sat."},
			expected: []string{"The cat sat."},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"one", "two", "-output", "json"},
			expected: []string{"-output", "json", "one", "two"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNonBlank(t *testing.T) {
	got := nonBlank([]string{"a", "  ", "", "b c"})
	if !reflect.DeepEqual(got, []string{"a", "b c"}) {
		t.Errorf("nonBlank() = %v", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
vectorstore:
  backend: memory
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
	if cfg.VectorStore.Backend != "memory" {
		t.Errorf("backend = %q, want memory", cfg.VectorStore.Backend)
	}
}

func TestLoadConfig_missingDefaultUsesDefaults(t *testing.T) {
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if _, statErr := os.Stat(defaultConfigPath); statErr == nil {
		t.Skip("default config exists on this machine")
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty", resolved)
	}
	if cfg.Server.Port != 8080 || cfg.Splitter.Mode != "independent" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
splitter:
  max_size: 200
  overlap: 20
  mode: concatenate
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Splitter.Mode != "concatenate" || cfg.Splitter.MaxSize != 200 {
		t.Errorf("unexpected splitter config: %+v", cfg.Splitter)
	}
}

func TestLoadConfig_explicitMissingFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestInitializeComponents_mockAndMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Embedding.Provider = config.ProviderMock
	cfg.VectorStore.Backend = config.BackendMemory
	cfg.VectorStore.CollectionPrefix = "t_"
	config.ApplyDefaults(cfg)

	components, err := initializeComponents(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()

	ctx := context.Background()
	ids, err := components.Indexer.Ingest(ctx, "alice", []string{"The cat sat on the mat."})
	if err != nil || len(ids) != 1 {
		t.Fatalf("Ingest: %v %v", ids, err)
	}
	docs, err := components.Engine.QueryFirst(ctx, "alice", []string{"The cat sat on the mat."})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0] != "The cat sat on the mat." {
		t.Errorf("QueryFirst = %v", docs)
	}
	if ok, _ := components.Store.CollectionExists(ctx, "t_alice"); !ok {
		t.Error("collection t_alice should exist")
	}
}

func TestInitializeComponents_badSplitter(t *testing.T) {
	cfg := &config.Config{}
	cfg.Embedding.Provider = config.ProviderMock
	cfg.VectorStore.Backend = config.BackendMemory
	config.ApplyDefaults(cfg)
	cfg.Splitter.Overlap = config.IntPtr(cfg.Splitter.MaxSize)

	if _, err := initializeComponents(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("expected error for overlap >= max size")
	}
}

func TestEmbedLocalFile(t *testing.T) {
	var got models.EmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode([]string{"id-1"})
	}))
	defer srv.Close()
	client := cli.NewClient(srv.URL, 5*time.Second)
	dir := t.TempDir()

	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("\xef\xbb\xbfline one\r\nline two"), 0600); err != nil {
		t.Fatal(err)
	}
	ids, err := embedLocalFile(context.Background(), client, extract.NewExtractor(), "alice", path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "id-1" {
		t.Errorf("ids: got %v", ids)
	}
	if got.User != "alice" || len(got.Texts) != 1 || got.Texts[0] != "line one\nline two" {
		t.Errorf("request: got %+v", got)
	}

	blank := filepath.Join(dir, "blank.md")
	if err := os.WriteFile(blank, []byte("  \n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := embedLocalFile(context.Background(), client, extract.NewExtractor(), "alice", blank); err == nil {
		t.Error("expected error for a file without text")
	}
	if _, err := embedLocalFile(context.Background(), client, extract.NewExtractor(), "alice", filepath.Join(dir, "slides.key")); err == nil {
		t.Error("expected error for a missing file")
	}
}
