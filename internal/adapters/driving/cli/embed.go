package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

var embedCmd = &cobra.Command{
	Use:   "embed [framework]",
	Short: "Compute embeddings for chunks that lack them",
	Long: `Embeds every stored chunk that has no vector for the active embedding
model. The run is idempotent and resumable: chunks embedded on a previous
run are skipped, and an interrupted run picks up where it left off.
If a framework is given, only that framework is processed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initServices(ctx); err != nil {
		return err
	}
	if indexService == nil {
		return errors.New("index service not configured")
	}

	frameworks := configuredFrameworks(configStore)
	if len(args) > 0 {
		frameworks = []domain.Framework{domain.Framework(args[0])}
	}

	for _, framework := range frameworks {
		report, err := indexService.EnsureEmbeddings(ctx, framework)
		if err != nil {
			return fmt.Errorf("embedding %s failed: %w", framework, err)
		}
		if report.Attempted == 0 {
			cmd.Printf("%s: up to date\n", framework)
			continue
		}
		cmd.Printf("%s: attempted %d, succeeded %d, failed %d (model %s)\n",
			framework, report.Attempted, report.Succeeded, report.Failed, report.ModelID)
		for _, msg := range report.Errors {
			cmd.Printf("  - %s\n", msg)
		}
	}
	return nil
}
