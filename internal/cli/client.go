package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/vecgate/internal/models"
)

// DefaultServerURL is where the CLI expects a running server.
const DefaultServerURL = "http://localhost:8080"

// Client calls a running vecgate server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ServerError is a non-200 response from the server.
type ServerError struct {
	Status  int
	Kind    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Embed stores texts for user and returns the chunk IDs.
func (c *Client) Embed(ctx context.Context, user string, texts []string) ([]string, error) {
	var ids []string
	err := c.do(ctx, http.MethodPost, "/embed", models.EmbeddingRequest{User: user, Texts: texts}, &ids)
	return ids, err
}

// EmbedDocument uploads a file for server-side extraction and stores its chunks for user.
func (c *Client) EmbedDocument(ctx context.Context, user, filename string, content io.Reader) ([]string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("user", user); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var resp models.IDsResponse
	if err := c.send(ctx, http.MethodPost, "/embed/document", mw.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

// Query returns one hit list per query text.
func (c *Client) Query(ctx context.Context, user string, queries []string) ([][]models.QueryHit, error) {
	var results [][]models.QueryHit
	err := c.do(ctx, http.MethodPost, "/query", models.QueryRequest{User: user, QueryTexts: queries}, &results)
	return results, err
}

// Collection reports the state of user's collection.
func (c *Client) Collection(ctx context.Context, user string) (*models.CollectionInfo, error) {
	var info models.CollectionInfo
	if err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(user), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Status returns the server's status sections.
func (c *Client) Status(ctx context.Context) (map[string]map[string]any, error) {
	var status map[string]map[string]any
	err := c.do(ctx, http.MethodGet, "/status", nil, &status)
	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if in == nil {
		return c.send(ctx, method, path, "", nil, out)
	}
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, "application/json", bytes.NewReader(b), out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &ServerError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
		var e struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			serr.Message, serr.Kind = e.Error, e.Kind
		}
		return serr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
