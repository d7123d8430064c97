package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(8)
	ctx := context.Background()
	a, err := e.Embed(ctx, "The cat sat.")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "The cat sat.")
	c, _ := e.Embed(ctx, "The dog ran.")
	if len(a) != 8 {
		t.Fatalf("len=%d", len(a))
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different texts should produce different embeddings")
	}
	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-4 {
		t.Errorf("expected unit vector, norm^2=%f", norm)
	}
}

func TestMockEmbedder_DefaultDimensions(t *testing.T) {
	if d := NewMockEmbedder(0).Dimensions(); d != 384 {
		t.Errorf("Dimensions()=%d", d)
	}
}

func TestCheckDimensions(t *testing.T) {
	if err := checkDimensions("p", []float32{1, 2}, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := checkDimensions("p", []float32{1, 2}, 3); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if err := checkDimensions("p", nil, 0); err == nil {
		t.Error("expected error for empty embedding")
	}
}
