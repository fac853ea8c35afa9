// Package cli implements the tessera command-line interface.
//
// Commands share a set of package-level service ports wired at startup by
// cmd/tessera. Tests swap the ports for mocks and execute commands through
// rootCmd directly.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/core/ports/driving"
	"github.com/tessera-search/tessera/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Service ports used by the commands. Nil ports make the dependent
// commands fail with a clear error instead of panicking.
var (
	ingestor    driving.Ingestor
	querier     driving.Querier
	assistant   driving.Assistant
	vectorStore driven.VectorStore
	watcher     driven.WatchableAdapter

	// queryDefaults seeds QueryOptions for query flags left unset, so the
	// config file's [query] section takes effect.
	queryDefaults driving.QueryOptions
)

// Services bundles the ports the commands depend on.
type Services struct {
	Ingestor    driving.Ingestor
	Querier     driving.Querier
	Assistant   driving.Assistant
	VectorStore driven.VectorStore

	// Watcher, when set, enables `ingest --watch` for sources the
	// adapter can observe.
	Watcher driven.WatchableAdapter

	// QueryDefaults holds the configured retrieval defaults, applied when
	// the query flags are not given.
	QueryDefaults driving.QueryOptions
}

// SetServices installs the service ports used by the commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	ingestor = s.Ingestor
	querier = s.Querier
	assistant = s.Assistant
	vectorStore = s.VectorStore
	watcher = s.Watcher
	queryDefaults = s.QueryDefaults
}

// bootstrap, when set, builds the service graph after flags are parsed so
// that --config and --verbose take effect before any service is created.
var bootstrap func(configPath string) (*Services, error)

// SetBootstrap registers the service graph constructor. It runs at most
// once, before the first command that needs services.
func SetBootstrap(fn func(configPath string) (*Services, error)) {
	bootstrap = fn
}

var (
	verboseFlag bool
	configPath  string
)

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Search your images, audio and video with natural language",
	Long: `Tessera indexes media from local folders, S3 buckets and YouTube
channels into a multi-modal vector store, then answers natural-language
queries against the index, optionally generating an answer with an LLM.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)

		if ingestor == nil && bootstrap != nil {
			services, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			SetServices(services)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.tessera/config.toml)")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
