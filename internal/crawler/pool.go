package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fedistats/fedistats/internal/client"
	"github.com/fedistats/fedistats/internal/model"
	"github.com/fedistats/fedistats/internal/version"
)

// Options configures one crawl run.
type Options struct {
	// Seeds are the starting instance domains. At least one valid,
	// non-excluded seed is required for the run to produce anything.
	Seeds []string

	// Excluded domains never produce a job, whether seeded or discovered.
	Excluded []string

	// Workers is the fixed worker-pool size. Values below 1 are raised to 1.
	Workers int

	// MaxDistance is the hop-distance bound from the nearest seed.
	MaxDistance int

	// Timeout applies per request. Used to build the shared client when
	// Client is nil.
	Timeout time.Duration

	// PublishedVersionURL overrides the published current-version
	// document used to derive the version gate. Empty means the default.
	PublishedVersionURL string

	// Client overrides the shared HTTP client. Mainly for tests.
	Client *http.Client

	// Logger receives engine logging. Nil means slog.Default().
	Logger *slog.Logger

	// Enricher is optional; nil disables enrichment.
	Enricher Enricher
}

// Stats summarizes a finished run for the caller. The engine itself
// never surfaces per-job errors; this is the aggregate view.
type Stats struct {
	// Attempted is the number of jobs that won their claim and fetched.
	Attempted int64
	// Succeeded is the number of results emitted.
	Succeeded int64
	// Failed is Attempted minus Succeeded.
	Failed int64
	// Minimum is the version gate threshold used for the run.
	Minimum string
}

// Run executes a complete crawl and returns the unordered result
// collection. It blocks until every reachable, valid instance within the
// distance bound has been visited exactly once and all workers have
// quiesced.
//
// Failure to obtain the published current-version reference is fatal and
// returns before any crawling starts. Per-instance failures never do.
func Run(ctx context.Context, opts Options) ([]model.CrawlResult, Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.Client
	if httpClient == nil {
		httpClient = client.New(timeout)
	}
	versionURL := opts.PublishedVersionURL
	if versionURL == "" {
		versionURL = version.DefaultPublishedURL
	}

	published, err := version.FetchPublished(ctx, httpClient, versionURL)
	if err != nil {
		return nil, Stats{}, err
	}
	gate, err := version.NewGate(published)
	if err != nil {
		return nil, Stats{}, err
	}
	logger.Info("version gate derived", "published", published, "minimum", gate.Minimum())

	excluded := make(map[string]struct{}, len(opts.Excluded))
	for _, raw := range opts.Excluded {
		d, err := model.NewDomain(raw)
		if err != nil {
			logger.Warn("ignoring malformed excluded domain", "domain", raw)
			continue
		}
		excluded[d.String()] = struct{}{}
	}

	params := &Params{
		Gate:        gate,
		Excluded:    excluded,
		MaxDistance: opts.MaxDistance,
		Visited:     NewVisitedSet(),
		Client:      httpClient,
		Logger:      logger,
		Enricher:    opts.Enricher,
	}

	queue := newJobQueue()
	results := make(chan model.CrawlResult, 64)

	// Seed the queue before the workers start, so the active count is
	// already positive when the first pop happens and can never touch
	// zero spuriously.
	seeded := 0
	for _, raw := range opts.Seeds {
		d, err := model.NewDomain(raw)
		if err != nil {
			logger.Warn("ignoring malformed seed", "domain", raw)
			continue
		}
		if params.excluded(d.String()) {
			continue
		}
		queue.push(&Job{Domain: d.String(), Distance: 0, params: params})
		seeded++
	}
	if seeded == 0 {
		// Nothing to do; the completion protocol needs at least one job
		// to ever fire, so short-circuit instead of blocking forever.
		return nil, Stats{Minimum: gate.Minimum()}, fmt.Errorf("no usable seed instances")
	}

	var attempted, succeeded atomic.Int64

	g := &errgroup.Group{}
	for i := 0; i < workers; i++ {
		worker := i
		g.Go(func() error {
			for {
				job, ok := queue.pop()
				if !ok {
					return nil
				}
				logger.Debug("worker claimed job",
					"worker", worker,
					"domain", job.Domain,
					"distance", job.Distance,
				)

				result, children, err := job.run(ctx)
				for _, child := range children {
					queue.push(child)
				}
				switch {
				case err != nil:
					attempted.Add(1)
					reason := FailureCategory("unknown")
					if je, ok := err.(*jobError); ok {
						reason = je.category
					}
					logger.Debug("crawl job failed",
						"domain", job.Domain,
						"reason", string(reason),
						"error", err,
					)
				case result != nil:
					attempted.Add(1)
					succeeded.Add(1)
					results <- *result
				}

				if queue.finish() {
					close(results)
				}
			}
		})
	}

	var collected []model.CrawlResult
	for r := range results {
		collected = append(collected, r)
	}

	// Workers exit as soon as the queue closes; Wait only tidies up.
	_ = g.Wait()

	a, s := attempted.Load(), succeeded.Load()
	return collected, Stats{
		Attempted: a,
		Succeeded: s,
		Failed:    a - s,
		Minimum:   gate.Minimum(),
	}, nil
}
