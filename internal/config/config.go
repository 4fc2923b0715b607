package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen based on the shape of the fediverse: thousands
// of mostly small, mostly slow instances with a long tail of dead domains.
const (
	// DefaultWorkers is the crawl worker-pool size. The crawl spends
	// nearly all of its time waiting on remote instances, so a worker
	// count well above the core count keeps throughput up without
	// meaningful CPU cost.
	DefaultWorkers = 32

	// DefaultMaxDistance bounds the hop distance from a seed. Ten hops
	// covers the reachable federation from any central seed; anything
	// beyond that is dead domains and typo squatters.
	DefaultMaxDistance = 10

	// DefaultTimeout is the per-request timeout. Most healthy instances
	// answer in well under a second; ten seconds separates the slow
	// from the dead without stalling workers for long.
	DefaultTimeout = 10 * time.Second

	// DefaultSeed is the instance used when no seeds are given. It is
	// the network's flagship instance and federates with nearly
	// everything, so one seed reaches the whole graph.
	DefaultSeed = "lemmy.ml"

	// AppName is the application name used for XDG directory paths.
	AppName = "fedistats"

	// DefaultConfigFile is the configuration file name searched for in
	// the current directory and the XDG config directory.
	DefaultConfigFile = ".fedistats.yaml"
)

// Config holds all configuration options for one fedistats invocation.
// This struct is populated from CLI flags and the optional config file
// and passed through the application via dependency injection rather
// than global state.
type Config struct {
	// Seeds are the starting instance domains for the crawl.
	Seeds []string

	// Excluded domains are never crawled, whether seeded or discovered.
	Excluded []string

	// Workers is the crawl worker-pool size.
	Workers int

	// MaxDistance is the hop-distance bound from the nearest seed.
	MaxDistance int

	// Timeout is the per-request timeout for each HTTP request.
	Timeout time.Duration

	// PublishedVersionURL overrides the published current-version
	// document used to derive the version gate. Empty means the default.
	PublishedVersionURL string

	// GeoIPDB is the path to a local MaxMind database. Empty disables
	// the country enrichment.
	GeoIPDB string

	// Communities enables the paginated local-community enrichment.
	Communities bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON output instead of the plain summary.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output instead of the plain summary.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// Minimal selects the reduced per-instance JSON projection.
	Minimal bool

	// Compress gzips the report output. Only meaningful with JSONReport
	// and an output file.
	Compress bool

	// OutputFile is the report destination. Empty means stdout.
	OutputFile string

	// SaveToDB indicates whether to persist the run to the database.
	SaveToDB bool

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is the explicit config file path, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Seeds:       []string{DefaultSeed},
		Workers:     DefaultWorkers,
		MaxDistance: DefaultMaxDistance,
		Timeout:     DefaultTimeout,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for fedistats.
// On Linux: ~/.local/share/fedistats
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for fedistats.
// On Linux: ~/.config/fedistats
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found; fixing one error often makes the
// rest irrelevant.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxDistance < 0 {
		return ErrInvalidMaxDistance
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Compress && !c.JSONReport {
		return ErrCompressRequiresJSON
	}
	return nil
}
