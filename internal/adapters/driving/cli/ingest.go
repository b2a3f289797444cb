package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

// controlRecordJSON is the wire format for ingestion input files.
type controlRecordJSON struct {
	ControlID string `json:"control_id"`
	Framework string `json:"framework"`
	Family    string `json:"family"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest control records into the corpus",
	Long: `Reads a JSON file of control records, segments each control body into
token-bounded chunks with overlap, and stores the chunk sets. Re-ingesting
a control replaces its previous chunk set atomically.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := initServices(ctx); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	records, err := loadControlRecords(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("Ingesting %d control records...\n", len(records))

	report, err := ingestService.Ingest(ctx, records)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Controls processed: %d\n", report.Controls)
	cmd.Printf("Chunks stored:      %d\n", report.Chunks)
	if report.EmptyBodies > 0 {
		cmd.Printf("Empty bodies:       %d\n", report.EmptyBodies)
	}
	if report.Failed > 0 {
		cmd.Printf("Failed:             %d\n", report.Failed)
		for _, msg := range report.Errors {
			cmd.Printf("  - %s\n", msg)
		}
	}
	return nil
}

// loadControlRecords parses the JSON input file.
func loadControlRecords(path string) ([]domain.ControlRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	var raw []controlRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing input file: %w", err)
	}

	records := make([]domain.ControlRecord, len(raw))
	for i, r := range raw {
		records[i] = domain.ControlRecord{
			ControlID: r.ControlID,
			Framework: domain.Framework(r.Framework),
			Family:    r.Family,
			Title:     r.Title,
			Body:      r.Body,
		}
	}
	return records, nil
}
