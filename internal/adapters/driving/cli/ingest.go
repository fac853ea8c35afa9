package cli

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tessera-search/tessera/internal/core/ports/driving"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [source]",
	Short: "Index media from a source",
	Long: `Indexes every recognised media item reachable from a source.

The source may be a local file or directory, an s3://bucket/prefix URI,
or a youtube:channel reference (channel ID or @handle). Items already
present in the index are skipped, so re-running ingest is cheap.

With --watch, tessera keeps running after the initial pass and
re-indexes whenever the source changes (local sources only).`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false,
		"keep watching the source and re-index on changes")
	rootCmd.AddCommand(ingestCmd)
}

// itemReporter is implemented by ingestors that can report per-item
// progress.
type itemReporter interface {
	OnItem(fn func(documentID string))
}

func runIngest(cmd *cobra.Command, args []string) error {
	source := args[0]

	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Indexing"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	if reporter, ok := ingestor.(itemReporter); ok {
		reporter.OnItem(func(documentID string) {
			bar.Describe(documentID)
			_ = bar.Add(1)
		})
	}

	stats, err := ingestor.Ingest(ctx, source)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printStats(cmd, stats)

	if !ingestWatch {
		return nil
	}
	if watcher == nil {
		return errors.New("--watch is not supported for this source")
	}

	changes, err := watcher.Watch(ctx, source)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Watching for changes. Press Ctrl-C to stop.")

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			stats, err := ingestor.Ingest(ctx, source)
			if err != nil {
				// Transient re-index failures should not kill the watch.
				cmd.PrintErrf("re-index failed: %v\n", err)
				continue
			}
			printStats(cmd, stats)
		}
	}
}

func printStats(cmd *cobra.Command, stats *driving.IngestStats) {
	cmd.Printf("Indexed %d, skipped %d, failed %d\n",
		stats.Processed, stats.Skipped, stats.Failed)
}
