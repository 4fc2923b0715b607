package crawler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fedistats/fedistats/internal/model"
	"github.com/fedistats/fedistats/internal/version"
)

// acceptedSoftware is the set of software family names whose instances
// are counted as part of the network. Anything else answering the API
// (forks aside, usually a misconfigured reverse proxy fronting some
// unrelated service) fails the job.
var acceptedSoftware = map[string]struct{}{
	"lemmy":   {},
	"lemmybb": {},
}

// Enricher adds optional, best-effort fields to an accepted result.
// Implementations must treat every failure as "leave the field absent";
// enrichment can never fail a job.
type Enricher interface {
	Enrich(ctx context.Context, domain string, result *model.CrawlResult)
}

// Params is the immutable-after-construction configuration shared by
// every job of one crawl run. It is created once by Run and shared by
// reference; only Visited is mutable, and it synchronizes internally.
type Params struct {
	// Gate is the minimum-version gate derived from the published
	// current version.
	Gate version.Gate

	// Excluded holds normalized domains that must never produce a job.
	Excluded map[string]struct{}

	// MaxDistance is the hop-distance bound. Jobs beyond it are never
	// created; the bound is enforced at emission time.
	MaxDistance int

	// Visited is the shared claim ledger.
	Visited *VisitedSet

	// Client is the shared HTTP client, safe for concurrent use.
	Client *http.Client

	// Logger receives per-job debug/warn records. Job failures are
	// logged with a "reason" attribute so a tallying handler can count
	// them by category.
	Logger *slog.Logger

	// Enricher is optional; nil disables enrichment.
	Enricher Enricher
}

// excluded reports whether the domain is in the exclusion set.
func (p *Params) excluded(domain string) bool {
	_, ok := p.Excluded[domain]
	return ok
}
