package models

import (
	"testing"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

func TestEmbeddingRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     EmbeddingRequest
		wantErr bool
	}{
		{"valid", EmbeddingRequest{User: "alice", Texts: []string{"hi"}}, false},
		{"no texts is allowed", EmbeddingRequest{User: "alice"}, false},
		{"missing user", EmbeddingRequest{Texts: []string{"hi"}}, true},
		{"blank user", EmbeddingRequest{User: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errortypes.Is(err, errortypes.KindBadRequest) {
				t.Errorf("expected bad_request, got %v", err)
			}
		})
	}
}

func TestQueryRequest_Validate(t *testing.T) {
	if err := (&QueryRequest{User: "bob"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&QueryRequest{}).Validate(); err == nil {
		t.Error("expected error for missing user")
	}
}

func TestNewQueryHit(t *testing.T) {
	p := ScoredPoint{ID: "id-1", Score: 0.9, Payload: NewPayload("alice", "The cat sat.", 0)}
	hit := NewQueryHit(p)
	if hit.Document != "The cat sat." {
		t.Errorf("document: got %q", hit.Document)
	}
	if _, ok := hit.Metadata[PayloadDocument]; ok {
		t.Error("metadata should not repeat the document")
	}
	if hit.Metadata[PayloadUser] != "alice" {
		t.Errorf("metadata user: got %v", hit.Metadata[PayloadUser])
	}
	if hit.Score != 0.9 || hit.ID != "id-1" {
		t.Errorf("hit: got %+v", hit)
	}
}
