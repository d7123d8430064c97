package vectorstore

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

func TestParseQdrantEndpoint(t *testing.T) {
	tests := []struct {
		raw     string
		port    int
		want    qdrantEndpoint
		wantErr bool
	}{
		{"localhost", 6334, qdrantEndpoint{Host: "localhost", Port: 6334}, false},
		{"http://qdrant:6333", 6334, qdrantEndpoint{Host: "qdrant", Port: 6334}, false},
		{"https://xyz.cloud.qdrant.io", 6334, qdrantEndpoint{Host: "xyz.cloud.qdrant.io", Port: 6334, UseTLS: true}, false},
		{"qdrant.internal", 0, qdrantEndpoint{Host: "qdrant.internal", Port: 6334}, false},
		{"", 6334, qdrantEndpoint{}, true},
		{"http://", 6334, qdrantEndpoint{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseQdrantEndpoint(tt.raw, tt.port)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errortypes.Is(err, errortypes.KindInvalidConfig) {
					t.Errorf("expected invalid_config, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPayloadToMap(t *testing.T) {
	in := qdrant.NewValueMap(map[string]any{
		"user":        "alice",
		"document":    "The cat sat.",
		"chunk_index": 2,
		"tags":        []any{"a", true},
		"meta":        map[string]any{"score": 0.5},
	})
	got := payloadToMap(in)
	if got["user"] != "alice" || got["document"] != "The cat sat." {
		t.Errorf("strings: %v", got)
	}
	if got["chunk_index"] != int64(2) {
		t.Errorf("chunk_index: %#v", got["chunk_index"])
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 2 || tags[1] != true {
		t.Errorf("tags: %#v", got["tags"])
	}
	meta, ok := got["meta"].(map[string]any)
	if !ok || meta["score"] != 0.5 {
		t.Errorf("meta: %#v", got["meta"])
	}
}

func TestPointID(t *testing.T) {
	if got := pointID(qdrant.NewIDUUID("5c56c793-69f3-4fbf-87e6-c4bf54c28c26")); got != "5c56c793-69f3-4fbf-87e6-c4bf54c28c26" {
		t.Errorf("uuid: got %s", got)
	}
	if got := pointID(qdrant.NewIDNum(42)); got != "42" {
		t.Errorf("num: got %s", got)
	}
	if got := pointID(nil); got != "" {
		t.Errorf("nil: got %q", got)
	}
}
