package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "freshmart",
	Short: "FreshMart - grocery shop backend",
	Long: `FreshMart serves the product catalog, customer order intake, staff
authentication and dashboard analytics of a small grocery shop.

Run the HTTP API with 'freshmart serve', or use the other commands to
manage the schema, the first admin account and sample data.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
