package embedding

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder waits on a token bucket before each provider call.
type RateLimitedEmbedder struct {
	Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder wraps inner so that it sustains at most rps calls per second.
// The burst is the integer part of rps, and at least 1.
func NewRateLimitedEmbedder(inner Embedder, rps float64) *RateLimitedEmbedder {
	burst := int(math.Max(1, math.Floor(rps)))
	return &RateLimitedEmbedder{Embedder: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Embed waits for a token, then delegates. A cancelled context aborts the wait.
func (e *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return e.Embedder.Embed(ctx, text)
}
