package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	auditTopK int
	auditJSON bool
)

var auditCmd = &cobra.Command{
	Use:   "audit [query] [answer-file]",
	Short: "Audit a generated answer against retrieved context",
	Long: `Retrieves grounding chunks for the query, then validates every bracketed
citation in the answer file against the retrieved identifiers. Unsupported
citations and control-family claims lower the grounding score; an answer
passes when the score meets the configured threshold.`,
	Args: cobra.ExactArgs(2),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().IntVarP(&auditTopK, "top-k", "n", 10, "retrieval depth for grounding context")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initServices(ctx); err != nil {
		return err
	}
	if retrievalService == nil || auditService == nil {
		return errors.New("audit service not configured")
	}

	answer, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("reading answer file: %w", err)
	}

	resp, err := retrievalService.Retrieve(ctx, args[0], queryOptions())
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	report, err := auditService.Validate(ctx, string(answer), resp.Results)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if auditJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Printf("Score: %d/100 (citations: %d)\n", report.Score, report.CitationCount)
		for _, f := range report.Violations() {
			cmd.Printf("  VIOLATION %s: %s\n", f.CitedIdentifier, f.Reason)
		}
		if report.Passed {
			cmd.Println("Result: PASS")
		} else {
			cmd.Println("Result: FAIL")
		}
	}

	if !report.Passed {
		return fmt.Errorf("answer failed grounding audit with score %d", report.Score)
	}
	return nil
}
