package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pttcrawl/internal/log"
)

// NewRootCmd creates the root command for pttcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pttcrawl",
		Short: "Crawler for PTT discussion boards",
		Long: `pttcrawl retrieves the listing and article pages of one PTT board
(https://www.ptt.cc) and converts them into structured records.

Each record carries the article metadata, body text, signature, source IP
and the comment stream with aggregate sentiment counts. Records are written
as CSV, JSON or Markdown, failures go to an error log, and every run is
archived in a local SQLite database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag retrieves a boolean flag from the command or the root's
// persistent flags. Missing flags read as false.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// setupLogger creates the secure logger selected by the global flags.
func setupLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	verbose := getBoolFlag(cmd, "verbose")
	if getBoolFlag(cmd, "log-json") {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}
