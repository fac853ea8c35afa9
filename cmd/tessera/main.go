// Command tessera is a multi-modal media search CLI. It indexes images,
// audio and video from local folders, S3 buckets and YouTube channels into
// a vector store and answers natural-language queries against the index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	configfile "github.com/tessera-search/tessera/internal/adapters/driven/config/file"
	"github.com/tessera-search/tessera/internal/adapters/driven/llm/openai"
	"github.com/tessera-search/tessera/internal/adapters/driven/models/caption"
	"github.com/tessera-search/tessera/internal/adapters/driven/models/clip"
	"github.com/tessera-search/tessera/internal/adapters/driven/models/whisper"
	"github.com/tessera-search/tessera/internal/adapters/driven/store/memory"
	"github.com/tessera-search/tessera/internal/adapters/driven/store/sqlite"
	"github.com/tessera-search/tessera/internal/adapters/driving/cli"
	"github.com/tessera-search/tessera/internal/connectors/local"
	"github.com/tessera-search/tessera/internal/connectors/s3"
	"github.com/tessera-search/tessera/internal/connectors/youtube"
	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/core/ports/driving"
	"github.com/tessera-search/tessera/internal/core/services"
	"github.com/tessera-search/tessera/internal/logger"
)

func main() {
	// Optional .env in the working directory; API keys may live there.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store driven.VectorStore
	var registry *services.ModelRegistry

	cli.SetBootstrap(func(configPath string) (*cli.Services, error) {
		svcs, s, r, err := buildServices(ctx, configPath)
		if err != nil {
			return nil, err
		}
		store, registry = s, r
		return svcs, nil
	})

	err := cli.Execute(ctx)

	if registry != nil {
		if cerr := registry.Close(); cerr != nil {
			logger.Debug("closing models: %v", cerr)
		}
	}
	if store != nil {
		if cerr := store.Close(); cerr != nil {
			logger.Debug("closing store: %v", cerr)
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

// buildServices constructs the full service graph from configuration.
func buildServices(
	ctx context.Context,
	configPath string,
) (*cli.Services, driven.VectorStore, *services.ModelRegistry, error) {
	cfg, err := configfile.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	localConnector := local.New(local.Config{Excludes: cfg.Sources.Local.Excludes})
	adapters := []driven.SourceAdapter{localConnector}

	if s3Connector, err := s3.New(ctx); err != nil {
		logger.Debug("S3 source disabled: %v", err)
	} else {
		adapters = append(adapters, s3Connector)
	}

	if cfg.Sources.YouTube.APIKey != "" {
		ytConnector, err := youtube.New(ctx, youtube.Config{
			APIKey:     cfg.Sources.YouTube.APIKey,
			Downloader: cfg.Sources.YouTube.Downloader,
		})
		if err != nil {
			logger.Debug("YouTube source disabled: %v", err)
		} else {
			adapters = append(adapters, ytConnector)
		}
	}

	resolver := services.NewSourceResolver(adapters...)
	ingestor := services.NewIngestOrchestrator(resolver, registry, store)
	querier := services.NewQueryService(registry, store)

	var llm driven.LLMService
	if cfg.LLM.Enabled && cfg.LLM.APIKey != "" {
		svc, err := openai.NewLLMService(openai.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			logger.Debug("answer generation disabled: %v", err)
		} else {
			llm = svc
		}
	}

	return &cli.Services{
		Ingestor:    ingestor,
		Querier:     querier,
		Assistant:   services.NewAnswerService(querier, llm),
		VectorStore: store,
		Watcher:     localConnector,
		QueryDefaults: driving.QueryOptions{
			NResults:          cfg.Query.Results,
			DistanceThreshold: cfg.Query.Threshold,
		},
	}, store, registry, nil
}

func newStore(cfg *configfile.Config) (driven.VectorStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memory.NewVectorStore(), nil
	case "sqlite":
		return sqlite.NewStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newRegistry builds the model registry from the enabled models.
func newRegistry(cfg *configfile.Config) (*services.ModelRegistry, error) {
	registry := services.NewModelRegistry()

	if cfg.Models.Clip.Enabled {
		model := clip.New(clip.Config{
			BaseURL: cfg.Models.Clip.BaseURL,
			Model:   cfg.Models.Clip.Model,
		})
		if err := registry.Register(domain.MediaImage, model); err != nil {
			return nil, err
		}
	}

	if cfg.Models.Caption.Enabled {
		model, err := caption.New(caption.Config{
			APIKey: cfg.Models.Caption.APIKey,
			Model:  cfg.Models.Caption.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("caption model: %w", err)
		}
		if err := registry.Register(domain.MediaImage, model); err != nil {
			return nil, err
		}
	}

	if cfg.Models.Whisper.Enabled {
		model, err := whisper.New(whisper.Config{
			APIKey:  cfg.Models.Whisper.APIKey,
			BaseURL: cfg.Models.Whisper.BaseURL,
			Model:   cfg.Models.Whisper.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("whisper model: %w", err)
		}
		for _, kind := range []domain.MediaKind{domain.MediaAudio, domain.MediaVideo} {
			if err := registry.Register(kind, model); err != nil {
				return nil, err
			}
		}
	}

	return registry, nil
}
