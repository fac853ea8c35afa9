// Package caption provides an embedding model adapter that captions images
// through the Gemini API. The caption text is stored as the document, so
// retrieval over captioned images is lexical rather than vector-based.
package caption

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// Default configuration values.
const (
	DefaultModel  = "gemini-2.0-flash"
	DefaultPrompt = "Describe this image in one concise sentence, mentioning the main subjects and setting."
)

// Config holds configuration for the caption model adapter.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the Gemini model to use (default: gemini-2.0-flash).
	Model string

	// Prompt overrides the captioning instruction.
	Prompt string
}

// Model captions images with Gemini and indexes the caption text.
type Model struct {
	cfg Config

	// The genai client dials on creation, so it is built lazily on first
	// encode rather than at wiring time.
	clientOnce sync.Once
	client     *genai.Client
	clientErr  error
}

// New creates a new caption model adapter.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("caption: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return &Model{cfg: cfg}, nil
}

// Name returns the adapter name.
func (m *Model) Name() string { return "caption" }

// Supports reports the media kinds this model can encode.
func (m *Model) Supports(kind domain.MediaKind) bool {
	return kind == domain.MediaImage
}

// CollectionName returns the store collection for a media kind.
func (m *Model) CollectionName(kind domain.MediaKind) string {
	return m.Name() + "-" + kind.String()
}

// EncodeMedia captions an image. The caption becomes the stored document,
// tagged so caption records are distinguishable from other model output.
func (m *Model) EncodeMedia(
	ctx context.Context,
	media domain.Media,
	_ domain.SourceKind,
) (domain.EncodingResult, error) {
	if media.Kind != domain.MediaImage {
		return domain.EncodingResult{}, fmt.Errorf("%w: caption model cannot encode %s",
			domain.ErrUnsupportedMedia, media.Kind)
	}
	if len(media.Bytes) == 0 {
		return domain.EncodingResult{}, fmt.Errorf("%w: image content not loaded", domain.ErrMediaLoad)
	}

	client, err := m.geminiClient(ctx)
	if err != nil {
		return domain.EncodingResult{}, err
	}

	mimeType := media.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: media.Bytes}},
			{Text: m.cfg.Prompt},
		},
	}}

	resp, err := client.Models.GenerateContent(ctx, m.cfg.Model, contents, nil)
	if err != nil {
		return domain.EncodingResult{}, fmt.Errorf("generate caption: %w", err)
	}

	caption := resp.Text()
	if caption == "" {
		return domain.EncodingResult{}, fmt.Errorf("gemini returned an empty caption")
	}

	return domain.EncodingResult{
		Documents: []string{caption},
		Metadata:  []map[string]any{{"type": "caption"}},
	}, nil
}

// EncodeText passes the query through for lexical search over captions.
func (m *Model) EncodeText(_ context.Context, query string) (domain.TextEncoding, error) {
	return domain.TextEncoding{Text: query}, nil
}

// geminiClient builds the API client on first use.
func (m *Model) geminiClient(ctx context.Context) (*genai.Client, error) {
	m.clientOnce.Do(func() {
		m.client, m.clientErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  m.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if m.clientErr != nil {
		return nil, fmt.Errorf("create gemini client: %w", m.clientErr)
	}
	return m.client, nil
}

// Close releases resources.
func (m *Model) Close() error {
	// The genai client holds no connections that need explicit cleanup.
	return nil
}
