package report

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fedistats/fedistats/internal/model"
)

// SummaryWriter outputs a short human-readable run summary, suitable
// for the terminal. Large counts are printed with thousand separators.
type SummaryWriter struct {
	baseWriter

	printer *message.Printer
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// formatInt renders an integer with thousand separators.
func formatInt(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// Write outputs the summary.
func (w *SummaryWriter) Write(stats *model.TotalStats) (int, error) {
	total := 0

	n, err := fmt.Fprintf(w.output, "Crawled %d instances in %s\n",
		stats.CrawledInstances,
		stats.EndTime.Sub(stats.StartTime).Round(time.Second),
	)
	total += n
	if err != nil {
		return total, err
	}

	lines := []struct {
		label string
		value int64
	}{
		{"Total users", stats.TotalUsers},
		{"Active (day)", stats.UsersActiveDay},
		{"Active (week)", stats.UsersActiveWeek},
		{"Active (month)", stats.UsersActiveMonth},
		{"Active (half year)", stats.UsersActiveHalfYear},
		{"Posts", stats.Posts},
		{"Comments", stats.Comments},
	}
	for _, line := range lines {
		n, err := w.printer.Fprintf(w.output, "  %-20s %d\n", line.label, line.value)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
