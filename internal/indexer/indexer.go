package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/vecgate/internal/embedding"
	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/extract"
	"github.com/hyperjump/vecgate/internal/models"
	"github.com/hyperjump/vecgate/internal/vectorstore"
)

// Indexer runs the ingest pipeline: split, embed, ensure the user's collection, upsert.
type Indexer struct {
	chunker     *Chunker
	embedder    embedding.Embedder
	store       vectorstore.Store
	extractor   *extract.Extractor
	prefix      string
	concurrency int
	logger      *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithConcurrency bounds parallel embedding calls; values below 2 keep calls sequential.
func WithConcurrency(n int) IndexerOption {
	return func(idx *Indexer) { idx.concurrency = n }
}

// WithCollectionPrefix prepends prefix to every user's collection name.
func WithCollectionPrefix(prefix string) IndexerOption {
	return func(idx *Indexer) { idx.prefix = prefix }
}

// WithExtractor sets the extractor used by IngestDocument. Without one, uploads are read as plain text.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(chunker *Chunker, embedder embedding.Embedder, store vectorstore.Store, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// CollectionName returns the collection that holds user's records.
func (idx *Indexer) CollectionName(user string) string {
	return idx.prefix + user
}

// Embedder returns the embedder used for chunks and queries.
func (idx *Indexer) Embedder() embedding.Embedder {
	return idx.embedder
}

// Chunker returns the splitter used for ingest and queries.
func (idx *Indexer) Chunker() *Chunker {
	return idx.chunker
}

// SplitAndEmbed splits texts and embeds every chunk. vectors[i] is the embedding of chunks[i].
// The first embedding failure aborts the whole call.
func (idx *Indexer) SplitAndEmbed(ctx context.Context, texts []string) (chunks []string, vectors [][]float32, err error) {
	chunks = idx.chunker.Split(texts)
	vectors = make([][]float32, len(chunks))
	if len(chunks) == 0 {
		return chunks, vectors, nil
	}

	if idx.concurrency < 2 {
		for i, chunk := range chunks {
			vec, err := idx.embedder.Embed(ctx, chunk)
			if err != nil {
				return nil, nil, fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
		}
		return chunks, vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vec, err := idx.embedder.Embed(gctx, chunk)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return chunks, vectors, nil
}

// Ingest stores texts for user and returns one new ID per chunk, in chunk order.
// Nothing is written unless every chunk was embedded.
func (idx *Indexer) Ingest(ctx context.Context, user string, texts []string) ([]string, error) {
	if strings.TrimSpace(user) == "" {
		return nil, errortypes.BadRequest("user is required")
	}
	chunks, vectors, err := idx.SplitAndEmbed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []string{}, nil
	}

	collection := idx.CollectionName(user)
	if err := idx.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	records := make([]models.VectorRecord, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = uuid.New().String()
		records[i] = models.VectorRecord{
			ID:      ids[i],
			Vector:  vectors[i],
			Payload: models.NewPayload(user, chunk, i),
		}
	}
	if err := idx.store.Upsert(ctx, collection, records); err != nil {
		return nil, err
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer ingested texts",
			zap.String("collection", collection),
			zap.Int("texts", len(texts)),
			zap.Int("chunks", len(chunks)))
	}
	return ids, nil
}

// IngestDocument extracts the text of an uploaded file, normalizes it and ingests it for user.
func (idx *Indexer) IngestDocument(ctx context.Context, user, filename string, content []byte) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		text string
		err  error
	)
	if idx.extractor != nil {
		text, err = idx.extractor.ExtractBytes(content, ext)
	} else {
		text = string(content)
	}
	if err != nil {
		return nil, err
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer extracted document",
			zap.String("filename", filename),
			zap.Int("bytes", len(content)))
	}
	return idx.Ingest(ctx, user, []string{Preprocess(text)})
}

func (idx *Indexer) ensureCollection(ctx context.Context, name string) error {
	exists, err := idx.store.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer creating collection",
			zap.String("collection", name),
			zap.Int("dimensions", idx.embedder.Dimensions()))
	}
	return idx.store.CreateCollection(ctx, name, idx.embedder.Dimensions(), models.MetricCosine)
}
