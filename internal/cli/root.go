package cli

import (
	"fmt"

	"policyPortal/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	tablesPath    string
	affordability string
	outputFmt     string
	verbose       bool
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

var rootCmd = &cobra.Command{
	Use:   "policyctl",
	Short: "Rank and compare insurance policies offline",
	Long: `policyctl runs the policy recommendation engine against JSON files,
without a database or the HTTP API.

It provides:
  - Top-N recommendations for a profile
  - Side-by-side comparison of two to four policies
  - Training of the learned scorer from labelled interactions`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Init("development")
			return
		}
		logger.Init("test")
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tablesPath, "tables", "",
		"scoring tables YAML (default: built-in tables)")
	rootCmd.PersistentFlags().StringVar(&affordability, "affordability", "",
		"affordability strategy override (linear, step)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format (table, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "policyctl %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", buildTime)
	},
}
