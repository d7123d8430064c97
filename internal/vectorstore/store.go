// Package vectorstore is the gateway to the vector database holding one collection per user.
package vectorstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/models"
)

// Store creates collections, upserts records and runs similarity search.
type Store interface {
	// Kind is the backend name (qdrant, sqlite, memory).
	Kind() string
	CollectionExists(ctx context.Context, name string) (bool, error)
	// CreateCollection is a no-op when the collection exists; it never changes
	// an existing collection's dimensions or metric.
	CreateCollection(ctx context.Context, name string, dims int, metric models.Metric) error
	// Upsert replaces records with matching IDs and inserts the rest. It fails as a whole.
	Upsert(ctx context.Context, name string, records []models.VectorRecord) error
	// Search returns up to limit points ordered by descending similarity.
	Search(ctx context.Context, name string, vector []float32, limit int) ([]models.ScoredPoint, error)
	CountPoints(ctx context.Context, name string) (uint64, error)
	Close() error
}

// New opens the backend selected by cfg.Backend.
func New(ctx context.Context, cfg *config.VectorStoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendQdrant:
		s, err = NewQdrantStore(ctx, cfg.URL, cfg.Port, cfg.APIKey)
	case config.BackendSQLite:
		s, err = NewSQLiteStore(cfg.DatabasePath)
	case config.BackendMemory:
		s, err = NewMemoryStore(cfg.SnapshotPath)
	default:
		return nil, errortypes.InvalidConfig("unknown vector store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("vector store ready", zap.String("backend", s.Kind()))
	return s, nil
}

func validateMetric(op string, metric models.Metric) error {
	if metric != models.MetricCosine {
		return errortypes.Storef(op, "unsupported metric %q", metric)
	}
	return nil
}

func checkVector(op string, vec []float32, dims int) error {
	if len(vec) != dims {
		return errortypes.Storef(op, "vector has %d dimensions, collection expects %d", len(vec), dims)
	}
	return nil
}
