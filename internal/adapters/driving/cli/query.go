package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessera-search/tessera/internal/core/domain"
)

var (
	queryKinds     []string
	queryResults   int
	queryThreshold float64
	queryNoAnswer  bool
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the index",
	Long: `Retrieves the closest indexed media for a natural-language query
and, when an LLM is configured, generates an answer from the retrieved
context. Use --no-answer to skip generation and print raw results.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringSliceVarP(&queryKinds, "kinds", "k", nil,
		"media kinds to search (image, audio, video, text; default all)")
	queryCmd.Flags().IntVarP(&queryResults, "results", "n", 0,
		"maximum results per model (default 5)")
	queryCmd.Flags().Float64VarP(&queryThreshold, "threshold", "t", 0,
		"cosine-distance cutoff, lower is stricter (default 0.5)")
	queryCmd.Flags().BoolVar(&queryNoAnswer, "no-answer", false,
		"print retrieved results without generating an answer")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false,
		"output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := args[0]

	if querier == nil {
		return errors.New("query service not configured")
	}

	kinds, err := parseKinds(queryKinds)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Flags win over configured defaults; zero means unset for both.
	opts := queryDefaults
	if queryResults > 0 {
		opts.NResults = queryResults
	}
	if queryThreshold != 0 {
		opts.DistanceThreshold = queryThreshold
	}

	if queryNoAnswer || assistant == nil {
		documents, err := querier.Query(ctx, text, kinds, opts)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return outputResult(cmd, kinds, domain.QueryResult{Documents: documents})
	}

	result, err := assistant.Ask(ctx, text, kinds, opts)
	if errors.Is(err, domain.ErrLLMUnavailable) {
		documents, err := querier.Query(ctx, text, kinds, opts)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return outputResult(cmd, kinds, domain.QueryResult{Documents: documents})
	}
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return outputResult(cmd, kinds, result)
}

// parseKinds converts the --kinds flag values, defaulting to all kinds.
func parseKinds(names []string) ([]domain.MediaKind, error) {
	if len(names) == 0 {
		return domain.AllMediaKinds, nil
	}
	kinds := make([]domain.MediaKind, 0, len(names))
	for _, name := range names {
		kind, err := domain.ParseMediaKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func outputResult(cmd *cobra.Command, kinds []domain.MediaKind, result domain.QueryResult) error {
	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if result.LLMResponse != "" {
		cmd.Println(result.LLMResponse)
		cmd.Println()
	}

	total := 0
	for _, kind := range kinds {
		hits := result.Documents[kind]
		if len(hits) == 0 {
			continue
		}
		total += len(hits)
		cmd.Printf("%s:\n", kind)
		for i := range hits {
			cmd.Printf("  [%d] %s\n", i+1, hits[i].Document)
			if src, ok := hits[i].Metadata[domain.MetaDocumentID].(string); ok && src != "" {
				cmd.Printf("      %s\n", src)
			}
		}
		cmd.Println()
	}
	if total == 0 {
		cmd.Println("No results found.")
	}
	return nil
}
