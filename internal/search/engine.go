// Package search answers similarity queries against a user's collection.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/models"
	"github.com/hyperjump/vecgate/internal/vectorstore"
)

// Pipeline splits and embeds query texts the same way documents were ingested.
type Pipeline interface {
	SplitAndEmbed(ctx context.Context, texts []string) ([]string, [][]float32, error)
	CollectionName(user string) string
}

// Engine runs top-K similarity search for every query chunk.
type Engine struct {
	pipeline Pipeline
	store    vectorstore.Store
	topK     int
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine. topK below 1 falls back to 10.
func NewEngine(pipeline Pipeline, store vectorstore.Store, topK int, opts ...EngineOption) *Engine {
	if topK < 1 {
		topK = 10
	}
	e := &Engine{pipeline: pipeline, store: store, topK: topK, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TopK returns the number of matches returned per query vector.
func (e *Engine) TopK() int {
	return e.topK
}

// Query splits and embeds queryTexts, then returns the top-K matches of each
// resulting vector in the user's collection, best first. results[i] belongs to the i-th query chunk.
func (e *Engine) Query(ctx context.Context, user string, queryTexts []string) ([][]models.ScoredPoint, error) {
	if strings.TrimSpace(user) == "" {
		return nil, errortypes.BadRequest("user is required")
	}
	chunks, vectors, err := e.pipeline.SplitAndEmbed(ctx, queryTexts)
	if err != nil {
		return nil, err
	}
	collection := e.pipeline.CollectionName(user)
	results := make([][]models.ScoredPoint, len(vectors))
	for i, vec := range vectors {
		hits, err := e.store.Search(ctx, collection, vec, e.topK)
		if err != nil {
			return nil, fmt.Errorf("query chunk %d: %w", i, err)
		}
		results[i] = hits
	}
	e.logger.Debug("search query",
		zap.String("collection", collection),
		zap.Int("query_chunks", len(chunks)),
		zap.Int("top_k", e.topK))
	return results, nil
}

// QueryFirst runs Query and returns only the chunk texts matched by the first query vector.
func (e *Engine) QueryFirst(ctx context.Context, user string, queryTexts []string) ([]string, error) {
	results, err := e.Query(ctx, user, queryTexts)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []string{}, nil
	}
	docs := make([]string, len(results[0]))
	for i, hit := range results[0] {
		docs[i] = hit.Document()
	}
	return docs, nil
}
