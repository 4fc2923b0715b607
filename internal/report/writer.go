// Package report renders a finished crawl run in several output formats:
// pretty JSON, gzip-compressed JSON, a Markdown summary, and a plain
// text summary for the terminal.
package report

import (
	"io"

	"github.com/fedistats/fedistats/internal/model"
)

// Writer outputs one crawl run's rollup to a configured destination.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the rollup. Returns the number of bytes written and
	// any error encountered.
	Write(stats *model.TotalStats) (int, error)
}

// baseWriter provides the shared output destination for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
