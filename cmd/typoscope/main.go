// Package main provides the entry point for the typoscope font compliance
// analyzer.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "typoscope",
	Short: "Typography compliance analyzer",
	Long:  "Typoscope analyzes PDF and PNG design files for font size compliance against the 4-size rule, via a REST API or one-shot CLI runs.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
