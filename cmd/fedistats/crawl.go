package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/spf13/cobra"

	"github.com/fedistats/fedistats/internal/client"
	"github.com/fedistats/fedistats/internal/config"
	"github.com/fedistats/fedistats/internal/crawler"
	"github.com/fedistats/fedistats/internal/database"
	"github.com/fedistats/fedistats/internal/enrich"
	"github.com/fedistats/fedistats/internal/log"
	"github.com/fedistats/fedistats/internal/model"
	"github.com/fedistats/fedistats/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [instance...]",
		Short: "Crawl the federated network from seed instances",
		Long: `Crawl discovers instances by following federation peer lists from the
given seeds, up to the configured hop distance. Each reachable, valid
instance is probed exactly once; offline, misconfigured, or
unrecognized instances are counted and skipped.

Examples:
  # Crawl from the default seed
  fedistats crawl

  # Crawl from specific seeds with more workers
  fedistats crawl -w 64 lemmy.ml lemmy.world

  # Exclude known-bad instances
  fedistats crawl -x spam.example -x mirror.example lemmy.ml

  # Write the full JSON dump, gzip-compressed
  fedistats crawl --json --compress -o stats/full.json.gz lemmy.ml

  # Markdown summary with GeoIP countries and community listings
  fedistats crawl --markdown --geoip-db GeoLite2-Country.mmdb --communities

Configuration file (.fedistats.yaml) example:
  seeds:
    - lemmy.ml
    - lemmy.world
  excluded:
    - spam.example
  geoip_db: /var/lib/geoip/GeoLite2-Country.mmdb`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent crawl workers")
	cmd.Flags().IntP("max-distance", "d", config.DefaultMaxDistance,
		"Maximum hop distance from a seed instance")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().StringArrayP("exclude", "x", nil,
		"Instance domain to exclude from the crawl (repeatable)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .fedistats.yaml in current or XDG config directory)")

	// Enrichment flags
	cmd.Flags().String("geoip-db", "",
		"Path to a MaxMind country database for GeoIP enrichment")
	cmd.Flags().Bool("communities", false,
		"Collect each instance's local community listing")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().Bool("minimal", false,
		"Reduce the JSON report to the minimal per-instance projection")
	cmd.Flags().BoolP("compress", "z", false,
		"Gzip the JSON report output")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-db", false,
		"Do not store this run in the local database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with the failure tally attached
	logger, tally := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// Cancelling stops frontier expansion and lets the pool drain.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, draining crawl frontier...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger, tally)
}

// buildConfig creates a Config from cobra command flags and the
// optional config file. Flags win over file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	if cfg.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.MaxDistance, err = cmd.Flags().GetInt("max-distance"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Excluded, err = cmd.Flags().GetStringArray("exclude"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.GeoIPDB, err = cmd.Flags().GetString("geoip-db"); err != nil {
		return nil, err
	}
	if cfg.Communities, err = cmd.Flags().GetBool("communities"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.Minimal, err = cmd.Flags().GetBool("minimal"); err != nil {
		return nil, err
	}
	if cfg.Compress, err = cmd.Flags().GetBool("compress"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.Verbose = getVerboseFlag(cmd)

	seedsFromFlags := len(args) > 0
	if seedsFromFlags {
		cfg.Seeds = args
	}

	// Load the config file underneath the flags. An explicitly given
	// path must exist; an implicit search is allowed to find nothing.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Merge(file, seedsFromFlags)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runCrawl executes the crawl and handles reporting and persistence.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, tally *log.Tally) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"workers", cfg.Workers,
		"maxDistance", cfg.MaxDistance,
	)

	enricher, cleanup, err := buildEnricher(cfg, logger)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	fmt.Printf("Crawling from %d seed(s)...\n", len(cfg.Seeds))
	startTime := time.Now()

	results, stats, err := crawler.Run(ctx, crawler.Options{
		Seeds:               cfg.Seeds,
		Excluded:            cfg.Excluded,
		Workers:             cfg.Workers,
		MaxDistance:         cfg.MaxDistance,
		Timeout:             cfg.Timeout,
		PublishedVersionURL: cfg.PublishedVersionURL,
		Logger:              logger,
		Enricher:            enricher,
	})
	if err != nil {
		return fmt.Errorf("crawl failed to start: %w", err)
	}

	model.SortByActiveMonth(results)
	totals := model.Aggregate(results, startTime)

	fmt.Printf("Crawl completed in %s: %d succeeded, %d failed (minimum version %s)\n",
		time.Since(startTime).Round(time.Millisecond),
		stats.Succeeded, stats.Failed, stats.Minimum)
	for _, category := range tally.Categories() {
		fmt.Printf("  %-12s %d\n", category, tally.Count(category))
	}
	fmt.Println()

	if err := outputReport(cfg, &totals); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg, &totals, logger); err != nil {
			logger.Error("failed to save crawl run", "error", err)
		}
	}

	return nil
}

// buildEnricher wires the optional enrichments. The returned cleanup
// closes the GeoIP database, if one was opened.
func buildEnricher(cfg *config.Config, logger *slog.Logger) (crawler.Enricher, func(), error) {
	var opts []enrich.Option
	var cleanup func()

	if cfg.GeoIPDB != "" {
		reader, err := geoip2.Open(cfg.GeoIPDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open GeoIP database %s: %w", cfg.GeoIPDB, err)
		}
		cleanup = func() { _ = reader.Close() }
		opts = append(opts, enrich.WithGeoDB(reader))
	}
	if cfg.Communities {
		opts = append(opts, enrich.WithCommunities(true))
	}

	// Enrichment requests share the crawl timeout but not its client;
	// the client is built inside the engine. A dedicated one here keeps
	// the community pagination off the crawl's tight connection pool.
	e := enrich.New(enrichHTTPClient(cfg), logger, opts...)
	if !e.Enabled() {
		return nil, cleanup, nil
	}
	return e, cleanup, nil
}

// enrichHTTPClient builds the HTTP client used by enrichment lookups.
func enrichHTTPClient(cfg *config.Config) *http.Client {
	return client.New(cfg.Timeout)
}

// outputReport writes the report per the configured format and target.
func outputReport(cfg *config.Config, totals *model.TotalStats) error {
	out, closer, err := openOutput(cfg.OutputFile)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	var w report.Writer
	switch {
	case cfg.JSONReport && cfg.Compress:
		w = report.NewGzipJSONWriter(out, report.WithMinimal(cfg.Minimal))
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithMinimal(cfg.Minimal))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSummaryWriter(out)
	}

	if _, err := w.Write(totals); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// openOutput returns the report destination, creating directories for a
// file target as needed.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// saveRun persists the finished run to the local database.
func saveRun(ctx context.Context, cfg *config.Config, totals *model.TotalStats, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.SaveRun(ctx, totals)
	if err != nil {
		return err
	}
	logger.Info("crawl run saved", "runID", runID, "dir", cfg.DBDir)
	return nil
}
