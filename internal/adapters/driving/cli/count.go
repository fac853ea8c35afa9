package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Show record counts per collection",
	Long: `Prints the number of indexed records in every collection.
Collections are named <model>-<kind>, one per model and media kind pair.`,
	Args: cobra.NoArgs,
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, _ []string) error {
	if vectorStore == nil {
		return errors.New("vector store not configured")
	}

	counts, err := vectorStore.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}

	if len(counts) == 0 {
		cmd.Println("The index is empty.")
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		cmd.Printf("  %-24s %d\n", name, counts[name])
		total += counts[name]
	}
	cmd.Printf("  %-24s %d\n", "total", total)
	return nil
}
