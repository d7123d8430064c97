package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/vecgate/internal/errortypes"
)

const (
	providerHuggingFace = "huggingface"
	// DefaultHuggingFaceBaseURL is the Inference API feature-extraction pipeline root.
	DefaultHuggingFaceBaseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction"
	maxErrorBody              = 4096
)

// HuggingFaceEmbedder calls the Hugging Face Inference API feature-extraction pipeline.
type HuggingFaceEmbedder struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	httpClient *http.Client
}

// HuggingFaceOption configures a HuggingFaceEmbedder.
type HuggingFaceOption func(*HuggingFaceEmbedder)

// WithBaseURL overrides the pipeline root URL (used by tests and self-hosted endpoints).
func WithBaseURL(u string) HuggingFaceOption {
	return func(e *HuggingFaceEmbedder) {
		if u != "" {
			e.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) HuggingFaceOption {
	return func(e *HuggingFaceEmbedder) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// NewHuggingFaceEmbedder returns an embedder for the given model, e.g.
// "sentence-transformers/all-MiniLM-L6-v2".
func NewHuggingFaceEmbedder(apiKey, model string, dimensions int, timeout time.Duration, opts ...HuggingFaceOption) *HuggingFaceEmbedder {
	e := &HuggingFaceEmbedder{
		apiKey:     apiKey,
		model:      model,
		baseURL:    DefaultHuggingFaceBaseURL,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type huggingFaceRequest struct {
	Inputs string `json:"inputs"`
}

// Embed requests the embedding of one text.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(huggingFaceRequest{Inputs: text})
	if err != nil {
		return nil, errortypes.Internal(fmt.Errorf("marshal request: %w", err))
	}
	url := e.baseURL + "/" + e.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errortypes.Internal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errortypes.EmbeddingProvider(providerHuggingFace, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errortypes.EmbeddingProvider(providerHuggingFace, resp.StatusCode, errorMessage(b), nil)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errortypes.EmbeddingProvider(providerHuggingFace, resp.StatusCode, "read response", err)
	}
	vec, err := decodeFeatureExtraction(raw)
	if err != nil {
		return nil, errortypes.EmbeddingProvider(providerHuggingFace, resp.StatusCode, "malformed response", err)
	}
	if err := checkDimensions(providerHuggingFace, vec, e.dimensions); err != nil {
		return nil, err
	}
	return vec, nil
}

// decodeFeatureExtraction accepts a pooled vector ([]float) or per-token
// vectors ([][]float), which are mean-pooled.
func decodeFeatureExtraction(raw []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}
	var tokens [][]float32
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no vectors in response")
	}
	if len(tokens) == 1 {
		return tokens[0], nil
	}
	out := make([]float32, len(tokens[0]))
	for _, tok := range tokens {
		if len(tok) != len(out) {
			return nil, fmt.Errorf("ragged token vectors")
		}
		for i, v := range tok {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float32(len(tokens))
	}
	return out, nil
}

// errorMessage extracts {"error": "..."} from a provider response, falling back to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response body"
	}
	return msg
}

// Dimensions returns the embedding dimension.
func (e *HuggingFaceEmbedder) Dimensions() int {
	return e.dimensions
}

// Name returns "huggingface".
func (e *HuggingFaceEmbedder) Name() string {
	return providerHuggingFace
}

// Close releases idle connections.
func (e *HuggingFaceEmbedder) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}
