package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwhited/typoscope/internal/extraction"
	"github.com/mwhited/typoscope/internal/ingestion"
	"github.com/mwhited/typoscope/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a PDF locally and print the compliance report",
	Long: `Run the exact font size extractor on a PDF and print the resulting
compliance report as JSON. No server, database or API key required.

PNG files cannot be analyzed locally; image analysis needs the vision
provider behind the server's analyze endpoint.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	upload, err := ingestion.ValidateUpload(args[0], "", data)
	if err != nil {
		return err
	}

	a, err := extraction.ExtractFile(upload.Data, upload.MimeType)
	if err != nil {
		return err
	}

	rep := report.NewBuilder(report.SectionConfig{}).Build(a)
	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
