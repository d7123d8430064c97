// Package models defines the records, requests, and responses passed between the pipeline layers.
package models

// Payload keys written with every record.
const (
	PayloadUser       = "user"
	PayloadDocument   = "document"
	PayloadChunkIndex = "chunk_index"
)

// Metric is a vector similarity metric.
type Metric string

// MetricCosine is the only metric collections are created with.
const MetricCosine Metric = "cosine"

// VectorRecord is one stored point: a generated ID, its embedding, and its payload.
type VectorRecord struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"-"`
	Payload map[string]any `json:"payload"`
}

// NewPayload returns the payload stored with a chunk.
func NewPayload(user, document string, chunkIndex int) map[string]any {
	return map[string]any{
		PayloadUser:       user,
		PayloadDocument:   document,
		PayloadChunkIndex: chunkIndex,
	}
}

// ScoredPoint is a single search hit.
type ScoredPoint struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Document returns the chunk text stored in the payload, or "".
func (p ScoredPoint) Document() string {
	s, _ := p.Payload[PayloadDocument].(string)
	return s
}
