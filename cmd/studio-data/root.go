package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studio-data",
	Short: "Photography studio CRM data service",
	Long: `studio-data serves the dynamic lead form API.

Examples:

  studio-data serve
  studio-data migrate
  studio-data seed --tenant <tenant-id> --file seed.yaml
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
