// Package main provides the entry point for the fedistats CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for fedistats.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fedistats",
		Short: "Crawl and characterize a federated network of instances",
		Long: `fedistats crawls a fediverse of Lemmy-family instances, starting from
seed domains and following each instance's self-reported federation
peers up to a bounded hop distance. It collects per-instance statistics
(users, activity, posts, federation lists) and produces network-wide
rollups in JSON, Markdown, or plain text.

Crawl runs are stored in a local database so that successive runs can
be compared with 'fedistats compare'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCompareCmd())
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
