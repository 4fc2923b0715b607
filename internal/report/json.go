package report

import (
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/fedistats/fedistats/internal/model"
)

// JSONWriter outputs the full rollup as indented JSON.
type JSONWriter struct {
	baseWriter

	// minimal switches to the reduced per-instance projection.
	minimal bool
}

// JSONOption configures a JSONWriter.
type JSONOption func(*JSONWriter)

// WithMinimal selects the reduced per-instance projection, which drops
// peer lists and enrichment data to keep published files small.
func WithMinimal(minimal bool) JSONOption {
	return func(w *JSONWriter) {
		w.minimal = minimal
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the rollup as indented JSON.
func (w *JSONWriter) Write(stats *model.TotalStats) (int, error) {
	var payload any = stats
	if w.minimal {
		payload = model.Minimal(*stats)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// GzipJSONWriter wraps JSONWriter with gzip compression at the best
// compression level. Published crawl dumps are large and repetitive;
// compressing them cuts the hosting cost to a fraction.
type GzipJSONWriter struct {
	baseWriter

	minimal bool
}

// NewGzipJSONWriter creates a GzipJSONWriter that outputs to the given writer.
func NewGzipJSONWriter(output io.Writer, opts ...JSONOption) *GzipJSONWriter {
	// Reuse JSONOption so the minimal projection toggles identically.
	j := &JSONWriter{}
	for _, opt := range opts {
		opt(j)
	}
	return &GzipJSONWriter{
		baseWriter: newBaseWriter(output),
		minimal:    j.minimal,
	}
}

// Write outputs the rollup as gzip-compressed indented JSON.
func (w *GzipJSONWriter) Write(stats *model.TotalStats) (int, error) {
	gz, err := gzip.NewWriterLevel(w.output, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	inner := NewJSONWriter(gz, WithMinimal(w.minimal))
	n, err := inner.Write(stats)
	if err != nil {
		_ = gz.Close()
		return n, err
	}
	if err := gz.Close(); err != nil {
		return n, err
	}
	return n, nil
}
