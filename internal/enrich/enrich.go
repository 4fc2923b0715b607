// Package enrich implements the optional per-instance enrichments:
// a GeoIP country lookup and a paginated local-community listing.
//
// Both are best-effort collaborators layered on top of a successfully
// crawled instance. Every failure path downgrades to "field absent";
// nothing in this package can fail a crawl job.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/oschwald/geoip2-golang"

	"github.com/fedistats/fedistats/internal/client"
	"github.com/fedistats/fedistats/internal/model"
)

// communityPageSize is the fixed page size for the community listing.
// The listing loop stops on the first short page.
const communityPageSize = 50

// maxCommunityPages caps the pagination loop so a malicious instance
// generating endless pages cannot pin a worker.
const maxCommunityPages = 100

// Enricher performs the optional lookups. The zero value is unusable;
// construct it with New.
type Enricher struct {
	client      *http.Client
	logger      *slog.Logger
	geo         *geoip2.Reader
	resolver    *net.Resolver
	communities bool
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithGeoDB enables the country lookup against the given reader.
func WithGeoDB(reader *geoip2.Reader) Option {
	return func(e *Enricher) {
		e.geo = reader
	}
}

// WithCommunities enables the paginated local-community listing.
func WithCommunities(enabled bool) Option {
	return func(e *Enricher) {
		e.communities = enabled
	}
}

// WithResolver overrides the DNS resolver used for the GeoIP lookup.
func WithResolver(r *net.Resolver) Option {
	return func(e *Enricher) {
		e.resolver = r
	}
}

// New creates an Enricher sharing the crawl's HTTP client and logger.
func New(httpClient *http.Client, logger *slog.Logger, opts ...Option) *Enricher {
	e := &Enricher{
		client:   httpClient,
		logger:   logger,
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Enabled reports whether any enrichment is configured. Callers can
// skip wiring the Enricher into the crawl entirely when it would be
// a no-op.
func (e *Enricher) Enabled() bool {
	return e.geo != nil || e.communities
}

// Enrich fills the optional fields of an accepted result. Failures are
// logged at debug level and otherwise ignored.
func (e *Enricher) Enrich(ctx context.Context, domain string, result *model.CrawlResult) {
	if e.geo != nil {
		country, err := e.country(ctx, domain)
		if err != nil {
			e.logger.Debug("geo lookup failed", "domain", domain, "error", err)
		} else {
			result.Country = country
		}
	}

	if e.communities {
		communities, err := e.listCommunities(ctx, domain)
		if err != nil {
			e.logger.Debug("community listing failed", "domain", domain, "error", err)
		}
		// Keep whatever pages were collected before the error.
		if len(communities) > 0 {
			result.Communities = communities
		}
	}
}

// country resolves the domain and looks the first address up in the
// GeoIP database, returning the ISO country code.
func (e *Enricher) country(ctx context.Context, domain string) (string, error) {
	addrs, err := e.resolver.LookupIP(ctx, "ip", domain)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no addresses for %s", domain)
	}

	record, err := e.geo.Country(addrs[0])
	if err != nil {
		return "", err
	}
	if record.Country.IsoCode == "" {
		return "", fmt.Errorf("no country record for %s", addrs[0])
	}
	return record.Country.IsoCode, nil
}

// communityListResponse is the community listing page shape.
type communityListResponse struct {
	Communities []struct {
		Community struct {
			Name    string `json:"name"`
			Title   string `json:"title"`
			ActorID string `json:"actor_id"`
		} `json:"community"`
		Counts struct {
			Subscribers int64 `json:"subscribers"`
			Posts       int64 `json:"posts"`
			Comments    int64 `json:"comments"`
		} `json:"counts"`
	} `json:"communities"`
}

// listCommunities pages through the instance's local communities until
// the first short page. On error it returns the pages collected so far
// together with the error; the caller keeps the partial listing.
func (e *Enricher) listCommunities(ctx context.Context, domain string) ([]model.Community, error) {
	var collected []model.Community

	for page := 1; page <= maxCommunityPages; page++ {
		url := fmt.Sprintf("https://%s/api/v3/community/list?type_=Local&limit=%d&page=%d",
			domain, communityPageSize, page)
		body, err := client.Fetch(ctx, e.client, url)
		if err != nil {
			return collected, err
		}

		var resp communityListResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return collected, err
		}

		for _, c := range resp.Communities {
			collected = append(collected, model.Community{
				Name:        c.Community.Name,
				Title:       c.Community.Title,
				ActorID:     c.Community.ActorID,
				Subscribers: c.Counts.Subscribers,
				Posts:       c.Counts.Posts,
				Comments:    c.Counts.Comments,
			})
		}

		if len(resp.Communities) < communityPageSize {
			break
		}
	}

	return collected, nil
}
