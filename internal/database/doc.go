// Package database provides SQLite-based persistence for crawl runs.
//
// Each crawl run is stored as one row of rollup totals plus one row per
// crawled instance. The compare command diffs two stored runs to show
// how the network changed between crawls.
//
// Design decision: We use modernc.org/sqlite (pure Go) rather than a
// cgo-based driver so the binary cross-compiles without a C toolchain.
package database
