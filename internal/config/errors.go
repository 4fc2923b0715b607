package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeeds is returned when no seed instance is configured.
	ErrNoSeeds = errors.New("no seed instances: provide at least one instance domain")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxDistance is returned when the hop-distance bound is
	// negative. Zero is valid and crawls only the seeds themselves.
	ErrInvalidMaxDistance = errors.New("invalid max distance: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrCompressRequiresJSON is returned when --compress is used
	// without --json; only the JSON report supports gzip output.
	ErrCompressRequiresJSON = errors.New("--compress requires --json output")
)
