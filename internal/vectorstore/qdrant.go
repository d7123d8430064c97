package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/models"
)

// QdrantStore talks to a Qdrant server over gRPC.
type QdrantStore struct {
	client *qdrant.Client
}

// qdrantEndpoint is the parsed form of the configured Qdrant URL.
type qdrantEndpoint struct {
	Host   string
	Port   int
	UseTLS bool
}

// parseQdrantEndpoint accepts a bare host or an http(s) URL. The gRPC port always
// comes from port; https enables TLS.
func parseQdrantEndpoint(raw string, port int) (qdrantEndpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return qdrantEndpoint{}, errortypes.InvalidConfig("qdrant url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return qdrantEndpoint{}, errortypes.InvalidConfig("invalid qdrant url %q: %v", raw, err)
	}
	if u.Hostname() == "" {
		return qdrantEndpoint{}, errortypes.InvalidConfig("invalid qdrant url %q: missing host", raw)
	}
	if port <= 0 {
		port = 6334
	}
	return qdrantEndpoint{Host: u.Hostname(), Port: port, UseTLS: u.Scheme == "https"}, nil
}

// NewQdrantStore connects to the Qdrant server at rawURL.
func NewQdrantStore(ctx context.Context, rawURL string, port int, apiKey string) (*QdrantStore, error) {
	ep, err := parseQdrantEndpoint(rawURL, port)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   ep.Host,
		Port:   ep.Port,
		APIKey: apiKey,
		UseTLS: ep.UseTLS,
	})
	if err != nil {
		return nil, errortypes.Store("connect", err)
	}
	return &QdrantStore{client: client}, nil
}

// Kind returns "qdrant".
func (s *QdrantStore) Kind() string {
	return config.BackendQdrant
}

// CollectionExists asks the server whether name exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	ok, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, errortypes.Store("collection exists", err)
	}
	return ok, nil
}

// CreateCollection creates name with cosine distance unless it already exists.
func (s *QdrantStore) CreateCollection(ctx context.Context, name string, dims int, metric models.Metric) error {
	if dims <= 0 {
		return errortypes.Storef("create collection", "dimensions must be positive")
	}
	if err := validateMetric("create collection", metric); err != nil {
		return err
	}
	exists, err := s.CollectionExists(ctx, name)
	if err != nil || exists {
		return err
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		// Lost a creation race with another request.
		if ok, _ := s.client.CollectionExists(ctx, name); ok {
			return nil
		}
		return errortypes.Store("create collection", err)
	}
	return nil
}

// Upsert sends all records in one request and waits for them to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, name string, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		payload, err := qdrant.TryValueMap(r.Payload)
		if err != nil {
			return errortypes.Store("upsert", fmt.Errorf("payload of %s: %w", r.ID, err))
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: payload,
		}
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return errortypes.Store("upsert", err)
	}
	return nil
}

// Search runs a nearest-neighbour query with payloads.
func (s *QdrantStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]models.ScoredPoint, error) {
	if limit <= 0 {
		return []models.ScoredPoint{}, nil
	}
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errortypes.Store("search", err)
	}
	hits := make([]models.ScoredPoint, len(res))
	for i, p := range res {
		hits[i] = models.ScoredPoint{
			ID:      pointID(p.GetId()),
			Score:   float64(p.GetScore()),
			Payload: payloadToMap(p.GetPayload()),
		}
	}
	return hits, nil
}

// CountPoints returns the exact number of points in name.
func (s *QdrantStore) CountPoints(ctx context.Context, name string) (uint64, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, errortypes.Store("count", err)
	}
	return n, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func payloadToMap(p map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_ListValue:
		vals := k.ListValue.GetValues()
		out := make([]any, len(vals))
		for i, e := range vals {
			out[i] = valueToAny(e)
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadToMap(k.StructValue.GetFields())
	default:
		return nil
	}
}
