package vectorstore

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/models"
)

// MemoryStore keeps collections in process and searches them by brute force.
// When a snapshot path is set, collections are loaded on open and written on Close.
type MemoryStore struct {
	snapshotPath string
	collections  map[string]*memoryCollection
	mu           sync.RWMutex
}

type memoryCollection struct {
	dims     int
	metric   models.Metric
	ids      []string
	vectors  [][]float32
	payloads []map[string]any
	index    map[string]int
}

func newMemoryCollection(dims int, metric models.Metric) *memoryCollection {
	return &memoryCollection{dims: dims, metric: metric, index: make(map[string]int)}
}

func (c *memoryCollection) put(id string, vec []float32, payload map[string]any) {
	v := make([]float32, len(vec))
	copy(v, vec)
	if i, ok := c.index[id]; ok {
		c.vectors[i] = v
		c.payloads[i] = payload
		return
	}
	c.index[id] = len(c.ids)
	c.ids = append(c.ids, id)
	c.vectors = append(c.vectors, v)
	c.payloads = append(c.payloads, payload)
}

// NewMemoryStore returns an empty store, or one restored from snapshotPath if that file exists.
func NewMemoryStore(snapshotPath string) (*MemoryStore, error) {
	m := &MemoryStore{snapshotPath: snapshotPath, collections: make(map[string]*memoryCollection)}
	if err := m.Load(snapshotPath); err != nil {
		return nil, err
	}
	return m, nil
}

// Kind returns "memory".
func (m *MemoryStore) Kind() string {
	return config.BackendMemory
}

// CollectionExists reports whether name has been created.
func (m *MemoryStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

// CreateCollection creates name with the given dimensions unless it already exists.
func (m *MemoryStore) CreateCollection(ctx context.Context, name string, dims int, metric models.Metric) error {
	if dims <= 0 {
		return errortypes.Storef("create collection", "dimensions must be positive")
	}
	if err := validateMetric("create collection", metric); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = newMemoryCollection(dims, metric)
	}
	return nil
}

// Upsert validates every record before writing any of them.
func (m *MemoryStore) Upsert(ctx context.Context, name string, records []models.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		return errortypes.Storef("upsert", "collection %s not found", name)
	}
	for _, r := range records {
		if r.ID == "" {
			return errortypes.Storef("upsert", "record without id")
		}
		if err := checkVector("upsert", r.Vector, c.dims); err != nil {
			return err
		}
	}
	for _, r := range records {
		c.put(r.ID, r.Vector, copyPayload(r.Payload))
	}
	return nil
}

// Search scores every point in the collection against vector.
func (m *MemoryStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]models.ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return nil, errortypes.Storef("search", "collection %s not found", name)
	}
	if err := checkVector("search", vector, c.dims); err != nil {
		return nil, err
	}
	if limit <= 0 || len(c.ids) == 0 {
		return []models.ScoredPoint{}, nil
	}
	hits := make([]models.ScoredPoint, len(c.ids))
	for i, vec := range c.vectors {
		hits[i] = models.ScoredPoint{ID: c.ids[i], Score: Cosine(vector, vec), Payload: copyPayload(c.payloads[i])}
	}
	return topK(hits, limit), nil
}

// CountPoints returns the number of points in name.
func (m *MemoryStore) CountPoints(ctx context.Context, name string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return 0, errortypes.Storef("count", "collection %s not found", name)
	}
	return uint64(len(c.ids)), nil
}

// Close writes the snapshot when one is configured.
func (m *MemoryStore) Close() error {
	return m.Save(m.snapshotPath)
}

// Save writes all collections to path. The format is little-endian:
// collection count (4), then per collection: name length (4), name, dimensions (4),
// metric length (4), metric, point count (4), and per point: id length (4), id,
// vector (dimensions*4), payload length (4), payload JSON.
func (m *MemoryStore) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errortypes.Store("save snapshot", fmt.Errorf("create snapshot dir: %w", err))
	}
	f, err := os.Create(path)
	if err != nil {
		return errortypes.Store("save snapshot", err)
	}
	w := bufio.NewWriter(f)
	if err := m.writeSnapshot(w); err != nil {
		f.Close()
		return errortypes.Store("save snapshot", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errortypes.Store("save snapshot", err)
	}
	if err := f.Close(); err != nil {
		return errortypes.Store("save snapshot", err)
	}
	return nil
}

func (m *MemoryStore) writeSnapshot(w io.Writer) error {
	if err := writeUint32(w, uint32(len(m.collections))); err != nil {
		return err
	}
	for name, c := range m.collections {
		if err := writeString(w, name); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(c.dims)); err != nil {
			return err
		}
		if err := writeString(w, string(c.metric)); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(c.ids))); err != nil {
			return err
		}
		for i, id := range c.ids {
			if err := writeString(w, id); err != nil {
				return err
			}
			if _, err := w.Write(float32sToBytes(c.vectors[i])); err != nil {
				return fmt.Errorf("write vector: %w", err)
			}
			payload, err := json.Marshal(c.payloads[i])
			if err != nil {
				return fmt.Errorf("marshal payload: %w", err)
			}
			if err := writeString(w, string(payload)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load replaces the store contents with the snapshot at path. A missing file is not an error.
func (m *MemoryStore) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errortypes.Store("load snapshot", err)
	}
	defer f.Close()
	collections, err := readSnapshot(bufio.NewReader(f))
	if err != nil {
		return errortypes.Store("load snapshot", err)
	}
	m.mu.Lock()
	m.collections = collections
	m.mu.Unlock()
	return nil
}

// Limits on lengths read from a snapshot header, so a corrupt file fails
// instead of forcing a huge allocation.
const (
	maxSnapshotString = 64 << 20
	maxSnapshotDims   = 1 << 16
)

func readSnapshot(r io.Reader) (map[string]*memoryCollection, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read collection count: %w", err)
	}
	collections := make(map[string]*memoryCollection, min(n, 1024))
	for i := uint32(0); i < n; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read collection name: %w", err)
		}
		dims, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read dimensions: %w", err)
		}
		if dims == 0 || dims > maxSnapshotDims {
			return nil, fmt.Errorf("collection %q: dimensions %d out of range", name, dims)
		}
		metric, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read metric: %w", err)
		}
		count, err := readUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read point count: %w", err)
		}
		c := newMemoryCollection(int(dims), models.Metric(metric))
		buf := make([]byte, int(dims)*4)
		for j := uint32(0); j < count; j++ {
			id, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("read id: %w", err)
			}
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("read vector: %w", err)
			}
			raw, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("read payload: %w", err)
			}
			var payload map[string]any
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
			c.put(id, bytesToFloat32s(buf), payload)
		}
		collections[name] = c
	}
	return collections, nil
}

func writeUint32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if n > maxSnapshotString {
		return "", fmt.Errorf("string length %d exceeds limit %d", n, maxSnapshotString)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
