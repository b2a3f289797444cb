package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

var (
	queryTopK           int
	queryFrameworks     []string
	queryThreshold      float64
	queryLexicalWeight  float64
	querySemanticWeight float64
	queryJSON           bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query the corpus with hybrid retrieval",
	Long: `Performs hybrid retrieval across the ingested corpus, blending keyword
(BM25) and semantic (vector) relevance into one ranked result list.
Results below the match threshold are excluded; an empty result is
reported as low confidence rather than padded with irrelevant chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "n", 10, "maximum number of results")
	queryCmd.Flags().StringSliceVar(&queryFrameworks, "framework", nil, "restrict to frameworks (repeatable)")
	queryCmd.Flags().Float64Var(&queryThreshold, "threshold", 0, "minimum blended score")
	queryCmd.Flags().Float64Var(&queryLexicalWeight, "lexical-weight", 0, "keyword signal weight (0 = configured default)")
	queryCmd.Flags().Float64Var(&querySemanticWeight, "semantic-weight", 0, "semantic signal weight (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initServices(ctx); err != nil {
		return err
	}
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	resp, err := retrievalService.Retrieve(ctx, args[0], queryOptions())
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if resp.LowConfidence {
		cmd.Println("No results above the match threshold (low confidence).")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range resp.Results {
		cmd.Printf("[%d] %s %s (blended %.3f, lexical %.3f, semantic %.3f)\n",
			i+1, r.Framework, r.ControlID, r.BlendedScore, r.LexicalScore, r.SemanticScore)
		cmd.Printf("    %s\n", snippet(r.Content, 160))
	}
	return nil
}

// queryOptions maps flags onto retrieval options. Weight flags override
// the configured blend only when both are set.
func queryOptions() domain.RetrievalOptions {
	opts := domain.RetrievalOptions{
		TopK:           queryTopK,
		MatchThreshold: queryThreshold,
	}

	if queryLexicalWeight > 0 || querySemanticWeight > 0 {
		opts.Weights = domain.Weights{Lexical: queryLexicalWeight, Semantic: querySemanticWeight}
	} else if configStore != nil {
		opts.Weights = domain.Weights{
			Lexical:  configStore.GetFloat("retrieval.lexical_weight"),
			Semantic: configStore.GetFloat("retrieval.semantic_weight"),
		}
	}
	if opts.MatchThreshold == 0 && configStore != nil {
		opts.MatchThreshold = configStore.GetFloat("retrieval.match_threshold")
	}

	for _, name := range queryFrameworks {
		opts.Frameworks = append(opts.Frameworks, domain.Framework(name))
	}
	return opts
}

// snippet truncates content to a single display line.
func snippet(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
