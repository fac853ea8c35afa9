// Package file provides TOML-based configuration loading.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultResults   = 5
	DefaultThreshold = 0.5
	DefaultBackend   = "sqlite"
)

// Environment variables consulted when the config file leaves API keys
// unset. Keys never have to live in the file.
const (
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvGeminiKey  = "GEMINI_API_KEY"
	EnvYouTubeKey = "YOUTUBE_API_KEY"
)

// Config is the on-disk configuration, stored as TOML.
type Config struct {
	// DataDir is where the index database lives (default: ~/.tessera/data).
	DataDir string `toml:"data_dir"`

	Store   StoreConfig   `toml:"store"`
	Models  ModelsConfig  `toml:"models"`
	LLM     LLMConfig     `toml:"llm"`
	Sources SourcesConfig `toml:"sources"`
	Query   QueryConfig   `toml:"query"`
}

// StoreConfig selects and tunes the vector store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "memory" (default: sqlite).
	Backend string `toml:"backend"`
}

// ModelsConfig enables and configures the embedding models.
type ModelsConfig struct {
	Clip    ClipConfig    `toml:"clip"`
	Whisper WhisperConfig `toml:"whisper"`
	Caption CaptionConfig `toml:"caption"`
}

// ClipConfig configures the CLIP image embedder.
type ClipConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// WhisperConfig configures the transcription model.
type WhisperConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// CaptionConfig configures the image captioning model.
type CaptionConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// SourcesConfig configures the source connectors.
type SourcesConfig struct {
	Local   LocalSourceConfig   `toml:"local"`
	YouTube YouTubeSourceConfig `toml:"youtube"`
}

// LocalSourceConfig configures local filesystem enumeration.
type LocalSourceConfig struct {
	// Excludes are glob patterns skipped during enumeration.
	Excludes []string `toml:"excludes"`
}

// YouTubeSourceConfig configures YouTube channel enumeration.
type YouTubeSourceConfig struct {
	APIKey     string `toml:"api_key"`
	Downloader string `toml:"downloader"`
}

// QueryConfig holds retrieval defaults.
type QueryConfig struct {
	Results   int     `toml:"results"`
	Threshold float64 `toml:"threshold"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".tessera", "config.toml"), nil
}

// Load reads a config file and applies defaults and environment fallbacks.
// A missing file is not an error: the defaults describe a working setup
// with all remote models disabled.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to defaults
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values with defaults and environment fallbacks.
func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Query.Results <= 0 {
		c.Query.Results = DefaultResults
	}
	if c.Query.Threshold == 0 {
		c.Query.Threshold = DefaultThreshold
	}

	if c.Models.Whisper.APIKey == "" {
		c.Models.Whisper.APIKey = os.Getenv(EnvOpenAIKey)
	}
	if c.Models.Caption.APIKey == "" {
		c.Models.Caption.APIKey = os.Getenv(EnvGeminiKey)
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(EnvOpenAIKey)
	}
	if c.Sources.YouTube.APIKey == "" {
		c.Sources.YouTube.APIKey = os.Getenv(EnvYouTubeKey)
	}
}

// Save writes the configuration to a TOML file, creating the directory as
// needed. Used by `tessera init` style flows and tests.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	// Restricted permissions: the file may hold API keys.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
