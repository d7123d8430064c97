package models

// IDsResponse wraps generated record IDs.
type IDsResponse struct {
	IDs []string `json:"ids"`
}

// QueryHit is one entry of a batch query result, shaped like the vector
// database's own document-query response: the chunk text, the remaining
// payload as metadata, and the similarity score.
type QueryHit struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// NewQueryHit converts a search hit into its response form.
func NewQueryHit(p ScoredPoint) QueryHit {
	meta := make(map[string]any, len(p.Payload))
	for k, v := range p.Payload {
		if k == PayloadDocument {
			continue
		}
		meta[k] = v
	}
	return QueryHit{ID: p.ID, Document: p.Document(), Metadata: meta, Score: p.Score}
}

// CollectionInfo reports whether a user's collection exists and its size.
type CollectionInfo struct {
	User       string `json:"user"`
	Collection string `json:"collection"`
	Exists     bool   `json:"exists"`
	Points     uint64 `json:"points"`
}
