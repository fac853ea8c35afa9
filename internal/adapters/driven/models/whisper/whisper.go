// Package whisper provides an embedding model adapter that transcribes
// audio and video through the OpenAI transcription API. Retrieval over the
// transcript segments is lexical: the stored documents are text and query
// encoding passes the raw query through.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure Model implements the interface.
var _ driven.EmbeddingModel = (*Model)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
	DefaultTimeout = 5 * time.Minute
)

// Config holds configuration for the Whisper model adapter.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for compatible transcription servers.
	BaseURL string

	// Model is the transcription model to use (default: whisper-1).
	Model string

	// Timeout is the request timeout (default: 5m). Transcription of long
	// recordings is slow; the timeout covers the whole upload and response.
	Timeout time.Duration
}

// Model transcribes audio and video into timestamped text segments.
type Model struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// transcriptionResponse is the verbose_json response format.
type transcriptionResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates a new Whisper model adapter.
func New(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("whisper: API key is required")
	}
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
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Name returns the adapter name.
func (m *Model) Name() string { return "whisper" }

// Supports reports the media kinds this model can encode.
func (m *Model) Supports(kind domain.MediaKind) bool {
	return kind == domain.MediaAudio || kind == domain.MediaVideo
}

// CollectionName returns the store collection for a media kind.
func (m *Model) CollectionName(kind domain.MediaKind) string {
	return m.Name() + "-" + kind.String()
}

// EncodeMedia transcribes a local audio or video file. Each transcript
// segment becomes one document carrying its start/end offsets, so query
// results point at positions inside the recording.
func (m *Model) EncodeMedia(
	ctx context.Context,
	media domain.Media,
	_ domain.SourceKind,
) (domain.EncodingResult, error) {
	if !m.Supports(media.Kind) {
		return domain.EncodingResult{}, fmt.Errorf("%w: whisper cannot encode %s",
			domain.ErrUnsupportedMedia, media.Kind)
	}
	if media.Path == "" {
		return domain.EncodingResult{}, fmt.Errorf("%w: no local file to transcribe", domain.ErrMediaLoad)
	}

	transcription, err := m.transcribe(ctx, media.Path)
	if err != nil {
		return domain.EncodingResult{}, err
	}

	result := domain.EncodingResult{}
	for _, segment := range transcription.Segments {
		result.Documents = append(result.Documents, segment.Text)
		result.Metadata = append(result.Metadata, map[string]any{
			"start": segment.Start,
			"end":   segment.End,
		})
	}
	if len(result.Documents) == 0 && transcription.Text != "" {
		result.Documents = []string{transcription.Text}
	}
	if len(result.Documents) == 0 {
		return domain.EncodingResult{}, fmt.Errorf("transcription of %s produced no text", media.Path)
	}
	return result, nil
}

// EncodeText passes the query through for lexical search over transcripts.
func (m *Model) EncodeText(_ context.Context, query string) (domain.TextEncoding, error) {
	return domain.TextEncoding{Text: query}, nil
}

// transcribe uploads a file to the transcription endpoint.
func (m *Model) transcribe(ctx context.Context, path string) (*transcriptionResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMediaLoad, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file content: %w", err)
	}
	if err := writer.WriteField("model", m.model); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("write format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+"/audio/transcriptions",
		&body,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("whisper error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("whisper error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var transcription transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcription); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if transcription.Error != nil {
		return nil, fmt.Errorf("whisper error: %s", transcription.Error.Message)
	}
	return &transcription, nil
}

// Close releases resources.
func (m *Model) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
