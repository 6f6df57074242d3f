// Package main provides the prettybib CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/prettybib/internal/config"
	"github.com/matsen/prettybib/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags.
var (
	jsonOutput bool
	verbose    bool
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "prettybib",
	Short: "Validate, normalize and enrich BibTeX",
	Long: `prettybib turns BibTeX collected from many sources into one uniform style.

Every entry is checked against the required fields of its type. Missing
required fields are written as TODO so they are easy to find, and entries are
re-rendered sorted by key with aligned fields.

With --enrich, TODO fields are looked up (journal ISSNs via DBpedia, book
ISBN, publisher and year via Open Library). Values already present are never
changed.

Problems are reported on stderr; the normalized BibTeX goes to stdout or
--output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for PRETTYBIB_* overrides)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Report diagnostics as JSON lines instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/prettybib/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v\n\n%s", err, config.HelpfulConfigMessage())
	}
	return cfg
}

// mustBuildLogger creates the run logger tagged with a fresh run id.
func mustBuildLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: verbose,
	})
	if err != nil {
		exitWithError(ExitConfigError, "building logger: %v", err)
	}
	return logging.WithRun(logger, logging.NewRunID())
}
