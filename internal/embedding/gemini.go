package embedding

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

const providerGemini = "gemini"

// GeminiEmbedder calls the Gemini embedContent API through the genai SDK.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	taskType   string
	dimensions int
}

// NewGeminiEmbedder creates a Gemini API client. baseURL may be empty.
func NewGeminiEmbedder(ctx context.Context, apiKey, model, taskType, baseURL string, dimensions int, timeout time.Duration) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, errortypes.InvalidConfig("create gemini client: %v", err)
	}
	return &GeminiEmbedder{client: client, model: model, taskType: taskType, dimensions: dimensions}, nil
}

// Embed requests the embedding of one text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: e.taskType,
	})
	if err != nil {
		return nil, geminiError(err)
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, errortypes.EmbeddingProvider(providerGemini, http.StatusOK, "no embeddings in response", nil)
	}
	vec := res.Embeddings[0].Values
	if err := checkDimensions(providerGemini, vec, e.dimensions); err != nil {
		return nil, err
	}
	return vec, nil
}

// geminiError maps SDK failures to embedding_provider errors carrying the HTTP status.
func geminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errortypes.EmbeddingProvider(providerGemini, 0, "request cancelled", err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return errortypes.EmbeddingProvider(providerGemini, apiErr.Code, apiErr.Message, nil)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return errortypes.EmbeddingProvider(providerGemini, apiErrPtr.Code, apiErrPtr.Message, nil)
	}
	return errortypes.EmbeddingProvider(providerGemini, 0, "request failed", err)
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Name returns "gemini".
func (e *GeminiEmbedder) Name() string {
	return providerGemini
}

// Close is a no-op; the SDK client holds no resources beyond its HTTP client.
func (e *GeminiEmbedder) Close() error {
	return nil
}
