// Package main is the vecgate CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/cli"
	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/embedding"
	"github.com/hyperjump/vecgate/internal/extract"
	"github.com/hyperjump/vecgate/internal/indexer"
	"github.com/hyperjump/vecgate/internal/search"
	"github.com/hyperjump/vecgate/internal/server"
	"github.com/hyperjump/vecgate/internal/vectorstore"
	"github.com/hyperjump/vecgate/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/vecgate/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A missing default config is not an error: defaults and environment variables apply.
// Returns the config and the path that was actually loaded ("" when none was).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "embed":
		runEmbed()
	case "query":
		runQuery()
	case "collection":
		runCollection()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("vecgate version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	envFile := fs.String("env-file", ".env", "dotenv file with API keys and Qdrant settings")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Printf("Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}
	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.Indexer,
		components.Engine,
		components.Store,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops
// at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// nonBlank drops arguments that are empty after trimming.
func nonBlank(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			out = append(out, a)
		}
	}
	return out
}

func parseOutput(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return format
}

func runEmbed() {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	serverURL := fs.String("server", cli.DefaultServerURL, "server URL")
	user := fs.String("user", "", "user whose collection receives the texts (required)")
	file := fs.String("file", "", "upload a document (pdf, docx, xlsx, pptx, odt, odp, ods, rtf, txt, md) instead of texts")
	local := fs.Bool("local", false, "with --file, extract text locally and send it as a text")
	timeout := fs.Duration("timeout", 2*time.Minute, "request timeout")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseOutput(*outputFormat)
	if strings.TrimSpace(*user) == "" {
		fmt.Println("embed: --user is required")
		os.Exit(1)
	}
	client := cli.NewClient(*serverURL, *timeout)
	ctx := context.Background()

	var (
		ids []string
		err error
	)
	if *file != "" && *local {
		ids, err = embedLocalFile(ctx, client, extract.NewExtractor(), *user, *file)
	} else if *file != "" {
		f, openErr := os.Open(*file)
		if openErr != nil {
			fmt.Fprintf(os.Stderr, "Open failed: %v\n", openErr)
			os.Exit(1)
		}
		defer f.Close()
		ids, err = client.EmbedDocument(ctx, *user, filepath.Base(*file), f)
	} else {
		texts := nonBlank(fs.Args())
		if len(texts) == 0 {
			fmt.Println("embed: provide texts as arguments or --file")
			os.Exit(1)
		}
		ids, err = client.Embed(ctx, *user, texts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embed failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteIDs(os.Stdout, ids, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// embedLocalFile extracts path on this machine and stores the text through /embed,
// so the server never sees the original document.
func embedLocalFile(ctx context.Context, client *cli.Client, ex *extract.Extractor, user, path string) ([]string, error) {
	text, err := ex.Extract(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text extracted from %s", filepath.Base(path))
	}
	return client.Embed(ctx, user, []string{text})
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	serverURL := fs.String("server", cli.DefaultServerURL, "server URL")
	user := fs.String("user", "", "user whose collection is searched (required)")
	timeout := fs.Duration("timeout", time.Minute, "request timeout")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	format := parseOutput(*outputFormat)
	queries := nonBlank(fs.Args())
	if strings.TrimSpace(*user) == "" || len(queries) == 0 {
		fmt.Println("Usage: vecgate query --user <user> <query text>...")
		os.Exit(1)
	}
	results, err := cli.NewClient(*serverURL, *timeout).Query(context.Background(), *user, queries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteQueryResults(os.Stdout, queries, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runCollection() {
	fs := flag.NewFlagSet("collection", flag.ExitOnError)
	serverURL := fs.String("server", cli.DefaultServerURL, "server URL")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Println("Usage: vecgate collection <user>")
		os.Exit(1)
	}
	info, err := cli.NewClient(*serverURL, 30*time.Second).Collection(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Collection failed: %v\n", err)
		os.Exit(1)
	}
	if !info.Exists {
		fmt.Printf("Collection %s does not exist\n", info.Collection)
		return
	}
	fmt.Printf("Collection %s: %d points\n", info.Collection, info.Points)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", cli.DefaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseOutput(*outputFormat)
	status, err := cli.NewClient(*serverURL, 30*time.Second).Status(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds the wired dependencies of the server.
type Components struct {
	Embedder embedding.Embedder
	Store    vectorstore.Store
	Indexer  *indexer.Indexer
	Engine   *search.Engine
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	embedder, err := embedding.New(ctx, &cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store, err := vectorstore.New(ctx, &cfg.VectorStore, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	chunker, err := indexer.NewChunker(indexer.ChunkerConfig{
		MaxSize: cfg.Splitter.MaxSize,
		Overlap: cfg.Splitter.OverlapSize(),
		Mode:    cfg.Splitter.Mode,
	})
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, err
	}

	idx := indexer.NewIndexer(chunker, embedder, store,
		indexer.WithConcurrency(cfg.Embedding.Concurrency),
		indexer.WithCollectionPrefix(cfg.VectorStore.CollectionPrefix),
		indexer.WithExtractor(extract.NewExtractor()),
		indexer.WithLogger(logger),
	)
	engine := search.NewEngine(idx, store, cfg.Search.TopK, search.WithLogger(logger))

	logger.Info("components initialized",
		zap.String("embedding_provider", embedder.Name()),
		zap.Int("dimensions", embedder.Dimensions()),
		zap.String("vector_store", store.Kind()),
		zap.String("splitter_mode", chunker.Mode()),
	)

	return &Components{
		Embedder: embedder,
		Store:    store,
		Indexer:  idx,
		Engine:   engine,
	}, nil
}

func printUsage() {
	fmt.Println(`vecgate - Text embedding and similarity search gateway

Usage:
  vecgate server [flags]                    Start the HTTP server
  vecgate embed [flags] <text>...           Split, embed and store texts
  vecgate query [flags] <query text>...     Search a user's collection
  vecgate collection [flags] <user>         Show a user's collection
  vecgate status [flags]                    Show server configuration
  vecgate version                           Show version
  vecgate help                              Show this help

Server Flags:
  --config string     Config file path (default: /usr/local/etc/vecgate/config.yaml)
  --env-file string   Dotenv file loaded before the config (default: .env)
  --debug             Enable debug logging

Embed Flags:
  --user string       User whose collection receives the texts (required)
  --file string       Upload a document for extraction instead of texts
  --local             With --file, extract locally and send the text
  --server string     Server URL (default: http://localhost:8080)
  --output string     Output format: text or json (default: text)

Query Flags:
  --user string       User whose collection is searched (required)
  --server string     Server URL (default: http://localhost:8080)
  --output string     Output format: text or json (default: text)

Environment:
  HF_API_KEY          Hugging Face Inference API key (provider huggingface)
  GEMINI_API_KEY      Gemini API key (provider gemini)
  Q_URL, Q_PORT       Qdrant host or URL and gRPC port
  Q_API_KEY           Qdrant API key

Examples:
  vecgate server
  vecgate embed --user alice "The cat sat on the mat." "Dogs bark."
  vecgate embed --user alice --file report.pdf
  vecgate embed --user alice --file slides.pptx --local
  vecgate query --user alice "where did the cat sit?"
  vecgate query --output json --user alice "cats" "dogs"
  vecgate status`)
}
