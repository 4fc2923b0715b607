package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/fedistats/fedistats/internal/model"
)

// markdownTopInstances caps the per-instance table in the Markdown
// report. The full data belongs in the JSON output; the Markdown report
// is a human-facing summary.
const markdownTopInstances = 25

// MarkdownWriter outputs the rollup as a GitHub Flavored Markdown
// summary with totals and a top-instances table.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the rollup in Markdown format.
func (w *MarkdownWriter) Write(stats *model.TotalStats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Fediverse Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Crawl started", stats.StartTime.Format("2006-01-02 15:04:05 MST")},
			{"Crawl finished", stats.EndTime.Format("2006-01-02 15:04:05 MST")},
			{"Instances", strconv.Itoa(stats.CrawledInstances)},
			{"Total users", formatInt(stats.TotalUsers)},
			{"Monthly active users", formatInt(stats.UsersActiveMonth)},
			{"Posts", formatInt(stats.Posts)},
			{"Comments", formatInt(stats.Comments)},
		},
	})
	md.PlainText("")

	w.writeInstances(md, stats)

	return len(md.String()), md.Build()
}

// writeInstances writes the top-instances table ordered as given, which
// the caller has already sorted by monthly active users.
func (w *MarkdownWriter) writeInstances(md *markdown.Markdown, stats *model.TotalStats) {
	if len(stats.InstanceDetails) == 0 {
		return
	}

	md.H2("Top Instances")
	md.PlainText("")

	limit := len(stats.InstanceDetails)
	if limit > markdownTopInstances {
		limit = markdownTopInstances
	}

	rows := make([][]string, 0, limit)
	for _, r := range stats.InstanceDetails[:limit] {
		rows = append(rows, []string{
			"`" + r.Domain + "`",
			r.Version,
			formatInt(r.TotalUsers),
			formatInt(r.UsersActiveMonth),
			formatInt(r.Posts),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Instance", "Version", "Users", "Monthly Active", "Posts"},
		Rows:   rows,
	})
	md.PlainText("")
}
