package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fedistats/fedistats/internal/config"
	"github.com/fedistats/fedistats/internal/database"
)

// NewCompareCmd creates the compare command.
// It diffs two crawl runs stored in the local database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [run-id run-id]",
		Short: "Compare two stored crawl runs",
		Long: `Compare shows how the network changed between two crawl runs:
instances that appeared or disappeared, and the deltas in instance and
user counts.

With no arguments the two most recent runs are compared. Run IDs are
printed by --list and by 'fedistats crawl' when a run is saved.

Examples:
  # Compare the two most recent runs
  fedistats compare

  # Compare two specific runs
  fedistats compare 3 7

  # List stored runs
  fedistats compare --list`,
		Args: cobra.MaximumNArgs(2),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored crawl runs instead of comparing")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return errors.New("provide two run IDs, or none to compare the most recent runs")
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no stored crawl runs found (run 'fedistats crawl' first): %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listRuns(ctx, cmd, db)
	}

	var olderID, newerID int64
	if len(args) == 2 {
		if olderID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return fmt.Errorf("invalid run ID %q", args[0])
		}
		if newerID, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return fmt.Errorf("invalid run ID %q", args[1])
		}
	} else {
		runs, err := db.RecentRuns(ctx, 2)
		if err != nil {
			return err
		}
		if len(runs) < 2 {
			return errors.New("need at least two stored runs to compare (use --list to see what exists)")
		}
		newerID, olderID = runs[0].ID, runs[1].ID
	}

	return compareRuns(ctx, cmd, db, olderID, newerID)
}

// listRuns prints the stored runs, newest first.
func listRuns(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB) error {
	runs, err := db.RecentRuns(ctx, 50)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored crawl runs.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-20s %-10s %-12s\n", "ID", "Started", "Instances", "Total Users")
	for _, r := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-20s %-10d %-12d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.CrawledInstances, r.TotalUsers)
	}
	return nil
}

// compareRuns prints the delta between two stored runs.
func compareRuns(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB, olderID, newerID int64) error {
	older, olderInstances, err := db.LoadRun(ctx, olderID)
	if err != nil {
		return err
	}
	newer, newerInstances, err := db.LoadRun(ctx, newerID)
	if err != nil {
		return err
	}

	olderDomains := make(map[string]struct{}, len(olderInstances))
	for _, r := range olderInstances {
		olderDomains[r.Domain] = struct{}{}
	}
	newerDomains := make(map[string]struct{}, len(newerInstances))
	for _, r := range newerInstances {
		newerDomains[r.Domain] = struct{}{}
	}

	var appeared, disappeared []string
	for _, r := range newerInstances {
		if _, ok := olderDomains[r.Domain]; !ok {
			appeared = append(appeared, r.Domain)
		}
	}
	for _, r := range olderInstances {
		if _, ok := newerDomains[r.Domain]; !ok {
			disappeared = append(disappeared, r.Domain)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Comparing run %d (%s) with run %d (%s)\n\n",
		older.ID, older.StartedAt.Local().Format("2006-01-02"),
		newer.ID, newer.StartedAt.Local().Format("2006-01-02"))
	fmt.Fprintf(out, "Instances: %d -> %d (%+d)\n",
		older.CrawledInstances, newer.CrawledInstances,
		newer.CrawledInstances-older.CrawledInstances)
	fmt.Fprintf(out, "Total users: %d -> %d (%+d)\n",
		older.TotalUsers, newer.TotalUsers, newer.TotalUsers-older.TotalUsers)
	fmt.Fprintf(out, "Monthly active: %d -> %d (%+d)\n\n",
		older.UsersActiveMonth, newer.UsersActiveMonth,
		newer.UsersActiveMonth-older.UsersActiveMonth)

	if len(appeared) > 0 {
		fmt.Fprintf(out, "New instances (%d):\n", len(appeared))
		for _, d := range appeared {
			fmt.Fprintf(out, "  + %s\n", d)
		}
	}
	if len(disappeared) > 0 {
		fmt.Fprintf(out, "Disappeared instances (%d):\n", len(disappeared))
		for _, d := range disappeared {
			fmt.Fprintf(out, "  - %s\n", d)
		}
	}
	if len(appeared) == 0 && len(disappeared) == 0 {
		fmt.Fprintln(out, "No instances appeared or disappeared.")
	}
	return nil
}
