package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessera-search/tessera/internal/core/domain"
)

var deleteSource string

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove indexed records",
	Long: `Removes records from every collection. With --source, only records
ingested from that source string are removed; otherwise the whole index
is cleared.`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteSource, "source", "s", "",
		"only delete records ingested from this source")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, _ []string) error {
	if vectorStore == nil {
		return errors.New("vector store not configured")
	}

	ctx := cmd.Context()

	collections, err := vectorStore.Collections(ctx)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	filter := map[string]string{}
	if deleteSource != "" {
		filter[domain.MetaSourceID] = deleteSource
	}

	for _, collection := range collections {
		if err := vectorStore.Delete(ctx, collection, filter); err != nil {
			return fmt.Errorf("delete from %s failed: %w", collection, err)
		}
	}

	if deleteSource != "" {
		cmd.Printf("Deleted records for source %s from %d collections.\n",
			deleteSource, len(collections))
	} else {
		cmd.Printf("Cleared %d collections.\n", len(collections))
	}
	return nil
}
