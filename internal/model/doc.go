// Package model defines the core data structures used throughout fedistats.
//
// This package contains the following main types:
//   - Domain: Validated, normalized instance hostname
//   - CrawlResult: The per-instance record produced by the crawl engine
//   - TotalStats: The flat network-wide rollup of one crawl run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, report, database) need to use these
// types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
