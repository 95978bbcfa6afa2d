package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	configPath string
	outputFmt  string
	verbose    bool
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "researchdesk",
	Short: "Find recent content on a topic and pick what is worth writing about",
	Long: `researchdesk searches recent content on a topic, summarizes it and
scores every result against a configurable rule to decide which pieces
are worth expanding into an article.

It provides:
  - Neural search via Exa (or Google Programmable Search)
  - LLM query optimization and summaries (OpenAI or Gemini)
  - Weighted scoring rules with built-in presets
  - MCP server for AI assistant integration`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if rules.IsConfigurationError(err) {
		fmt.Fprintln(os.Stderr, "Run 'researchdesk rules list' or 'researchdesk presets' to see what is available.")
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: ~/.config/researchdesk/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format (table, json, csv)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(home, ".config", "researchdesk", "config.toml")
	}
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("researchdesk %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
	},
}
