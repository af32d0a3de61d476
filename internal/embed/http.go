package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/replify/kbengine/internal/kberrors"
)

// HTTPGenerator calls an Ollama-compatible embedding endpoint.
type HTTPGenerator struct {
	host   string
	model  string
	dims   int
	client *http.Client
}

var _ Generator = (*HTTPGenerator)(nil)

// NewHTTPGenerator creates a generator backed by POST {host}/api/embed.
func NewHTTPGenerator(host, model string, dims int, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		host:   host,
		model:  model,
		dims:   dims,
		client: &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed implements Generator.
func (g *HTTPGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements Generator.
func (g *HTTPGenerator) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: g.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, kberrors.ProviderUnavailable("embedding request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, kberrors.ProviderUnavailable(
			fmt.Sprintf("embedding endpoint returned %d: %s", resp.StatusCode, data), nil)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, kberrors.ProviderUnavailable("decode embed response", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, kberrors.ProviderUnavailable(
			fmt.Sprintf("embedding count mismatch: want %d, got %d", len(texts), len(parsed.Embeddings)), nil)
	}
	for _, vec := range parsed.Embeddings {
		if len(vec) != g.dims {
			return nil, kberrors.ProviderUnavailable(
				fmt.Sprintf("embedding dimension mismatch: want %d, got %d", g.dims, len(vec)), nil)
		}
	}
	return parsed.Embeddings, nil
}

// Model implements Generator.
func (g *HTTPGenerator) Model() string { return g.model }

// Dimensions implements Generator.
func (g *HTTPGenerator) Dimensions() int { return g.dims }
