// Package log provides the structured logger setup for fedistats and a
// slog.Handler wrapper that tallies crawl-job failures by category.
//
// The crawl engine never surfaces per-job errors; it only logs them with
// a "reason" attribute. The tally handler observes those records as they
// flow past, so the CLI can print failed/succeeded counts at the end of
// a run without the engine exporting any error state.
package log

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// ReasonKey is the attribute key the tally handler counts by.
const ReasonKey = "reason"

// Tally accumulates per-category failure counts. Safe for concurrent use.
type Tally struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewTally creates an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// add increments one category.
func (t *Tally) add(category string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[category]++
}

// Count returns the count for one category.
func (t *Tally) Count(category string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[category]
}

// Total returns the sum over all categories.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Categories returns the recorded categories in sorted order.
func (t *Tally) Categories() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	categories := make([]string, 0, len(t.counts))
	for c := range t.counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// TallyHandler wraps an slog.Handler and counts every record carrying a
// ReasonKey attribute, then delegates to the underlying handler.
//
// Design decision: We use a handler wrapper rather than explicit counter
// plumbing because the failure records already flow through the logger;
// counting them there keeps the engine's API free of error bookkeeping
// and works with any underlying handler (text, JSON, discard).
type TallyHandler struct {
	handler slog.Handler
	tally   *Tally
}

// NewTallyHandler creates a TallyHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewTallyHandler(handler slog.Handler, tally *Tally) *TallyHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &TallyHandler{handler: handler, tally: tally}
}

// Enabled always returns true: failure records are logged at debug
// level, and the tally must see them even when the underlying handler's
// level would suppress the output. Handle re-checks the underlying
// level before delegating.
func (h *TallyHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle counts the record if it carries a reason attribute, then
// passes it on when the underlying handler wants it.
func (h *TallyHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == ReasonKey {
			h.tally.add(a.Value.String())
			return false
		}
		return true
	})

	if !h.handler.Enabled(ctx, r.Level) {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
// The tally is shared, so counts from derived loggers accumulate in
// the same place.
func (h *TallyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TallyHandler{handler: h.handler.WithAttrs(attrs), tally: h.tally}
}

// WithGroup returns a new handler with the given group name.
func (h *TallyHandler) WithGroup(name string) slog.Handler {
	return &TallyHandler{handler: h.handler.WithGroup(name), tally: h.tally}
}

// NewLogger creates a structured logger writing to w with the tally
// handler installed.
//
// Parameters:
//   - w: the io.Writer to write log output to (typically os.Stderr)
//   - verbose: if true, sets log level to Debug; otherwise Warn
//
// Returns the logger and the Tally it feeds.
func NewLogger(w io.Writer, verbose bool) (*slog.Logger, *Tally) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	tally := NewTally()
	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewTallyHandler(textHandler, tally)), tally
}
