package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

var (
	statusFrameworks []string
	statusJSON       bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingestion and embedding coverage",
	Long: `Reports per-framework record, chunk and embedding counts, plus the
overall completeness percentage for the active embedding model.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringSliceVar(&statusFrameworks, "framework", nil, "restrict to frameworks (repeatable)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := initServices(ctx); err != nil {
		return err
	}
	if statusService == nil {
		return errors.New("status service not configured")
	}

	var frameworks []domain.Framework
	if len(statusFrameworks) > 0 {
		for _, name := range statusFrameworks {
			frameworks = append(frameworks, domain.Framework(name))
		}
	} else {
		frameworks = configuredFrameworks(configStore)
	}

	status, err := statusService.Status(ctx, frameworks)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("%-14s %8s %8s %10s %8s\n", "FRAMEWORK", "RECORDS", "CHUNKS", "EMBEDDED", "MISSING")
	for _, fs := range status.Frameworks {
		cmd.Printf("%-14s %8d %8d %10d %8d\n",
			fs.Framework, fs.Records, fs.Chunks, fs.ChunksWithEmbeddings, fs.MissingEmbeddings)
	}
	cmd.Printf("\nCompleteness: %.1f%%\n", status.Completeness)
	return nil
}
