// Package clip provides an embedding model adapter backed by a CLIP
// inference server.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8820"
	DefaultModel   = "clip-vit-base-patch32"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the CLIP model adapter.
type Config struct {
	// BaseURL is the inference server base URL (default: http://localhost:8820).
	BaseURL string

	// Model is the CLIP checkpoint to use (default: clip-vit-base-patch32).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Model embeds images and query text into a shared vector space using a
// CLIP inference server. Images and text map to the same space, so text
// queries retrieve images directly by cosine distance.
type Model struct {
	client  *http.Client
	baseURL string
	model   string
}

// embedRequest is the inference server request format. Exactly one of
// Image (base64) or Text is set.
type embedRequest struct {
	Model string `json:"model"`
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

// embedResponse is the inference server response format.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// New creates a new CLIP model adapter.
func New(cfg Config) *Model {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Model{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Name returns the adapter name.
func (m *Model) Name() string { return "clip" }

// Supports reports the media kinds this model can encode.
func (m *Model) Supports(kind domain.MediaKind) bool {
	return kind == domain.MediaImage
}

// CollectionName returns the store collection for a media kind.
func (m *Model) CollectionName(kind domain.MediaKind) string {
	return m.Name() + "-" + kind.String()
}

// EncodeMedia embeds an image into the CLIP vector space.
func (m *Model) EncodeMedia(
	ctx context.Context,
	media domain.Media,
	_ domain.SourceKind,
) (domain.EncodingResult, error) {
	if media.Kind != domain.MediaImage {
		return domain.EncodingResult{}, fmt.Errorf("%w: clip cannot encode %s",
			domain.ErrUnsupportedMedia, media.Kind)
	}
	if len(media.Bytes) == 0 {
		return domain.EncodingResult{}, fmt.Errorf("%w: image content not loaded", domain.ErrMediaLoad)
	}

	embedding, err := m.embed(ctx, embedRequest{
		Model: m.model,
		Image: base64.StdEncoding.EncodeToString(media.Bytes),
	})
	if err != nil {
		return domain.EncodingResult{}, err
	}

	return domain.EncodingResult{Embeddings: [][]float32{embedding}}, nil
}

// EncodeText embeds query text into the same vector space as images.
func (m *Model) EncodeText(ctx context.Context, query string) (domain.TextEncoding, error) {
	embedding, err := m.embed(ctx, embedRequest{Model: m.model, Text: query})
	if err != nil {
		return domain.TextEncoding{}, err
	}
	return domain.TextEncoding{Embedding: embedding}, nil
}

// embed posts an embed request to the inference server.
func (m *Model) embed(ctx context.Context, reqBody embedRequest) ([]float32, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+"/v1/embed",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("clip error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("clip error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if embedResp.Error != "" {
		return nil, fmt.Errorf("clip error: %s", embedResp.Error)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("clip returned an empty embedding")
	}

	// Convert float64 to float32
	embedding := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// Close releases resources.
func (m *Model) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
