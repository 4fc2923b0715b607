// Package main provides the entry point for the fedistats CLI.
//
// fedistats discovers a federated network of Lemmy-family instances by
// crawling their self-reported federation peers from a set of seeds,
// and reports per-instance and network-wide statistics.
//
// Usage:
//
//	fedistats crawl [instance...]
//	fedistats compare [run-id run-id]
//
// See --help for all available options.
package main

// main is the entry point for fedistats.
func main() {
	Execute()
}
