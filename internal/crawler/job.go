package crawler

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fedistats/fedistats/internal/client"
	"github.com/fedistats/fedistats/internal/model"
	"github.com/fedistats/fedistats/internal/nodeinfo"
)

// FailureCategory classifies why a job produced no result. The engine
// logs it as the "reason" attribute; it never propagates as an error.
type FailureCategory string

// Failure categories, mirroring the error taxonomy of the crawl.
const (
	// FailTransport covers connection, DNS, TLS, timeout, and non-2xx
	// responses after transport-level retries are exhausted.
	FailTransport FailureCategory = "transport"
	// FailSchema means no known schema generation decoded the payload.
	FailSchema FailureCategory = "schema"
	// FailIdentity means the instance's self-reported canonical identity
	// does not match the domain it was fetched from.
	FailIdentity FailureCategory = "identity"
	// FailPolicy covers unrecognized software families and versions
	// below the gate. Not transient, never retried.
	FailPolicy FailureCategory = "policy"
)

// jobError carries the failure category alongside the underlying cause.
type jobError struct {
	category FailureCategory
	err      error
}

func (e *jobError) Error() string {
	return fmt.Sprintf("%s: %v", e.category, e.err)
}

func (e *jobError) Unwrap() error { return e.err }

func failTransport(err error) *jobError { return &jobError{FailTransport, err} }
func failSchema(err error) *jobError    { return &jobError{FailSchema, err} }

// Job is one unit of crawl work: a single instance domain at a known hop
// distance from a seed. Jobs are created validated (seeding and child
// emission both run the domain validator) and consumed exactly once.
type Job struct {
	// Domain is the normalized target hostname.
	Domain string

	// Distance is the hop distance from the nearest seed. Always within
	// the configured bound; the bound is enforced when the job is created.
	Distance int

	params *Params
}

// instanceData is everything fetched from one instance, before it is
// folded into a CrawlResult.
type instanceData struct {
	node  *nodeinfo.NodeInfo
	site  *nodeinfo.SiteInfo
	peers *nodeinfo.FederationLists
}

// run executes the job to completion: claim, fetch, validate, expand.
// It returns the result (nil if the job was rejected or failed) and the
// child jobs to enqueue. The returned error is informational only.
func (j *Job) run(ctx context.Context) (*model.CrawlResult, []*Job, error) {
	p := j.params

	// Claim first. Losing the claim is the normal fate of a domain
	// discovered from several directions at once, not a failure.
	if !p.Visited.Claim(j.Domain) {
		return nil, nil, nil
	}

	// Jobs are pre-filtered at creation, so these gates only matter for
	// jobs constructed outside the engine. They cost nothing and keep
	// the state machine honest.
	if p.excluded(j.Domain) || !model.IsValidDomain(j.Domain) || j.Distance > p.MaxDistance {
		return nil, nil, nil
	}

	data, err := j.fetch(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := j.validate(data); err != nil {
		return nil, nil, err
	}

	result := j.buildResult(data)

	// Enrichment is best-effort and independent of the crawl's
	// correctness; a failing enricher only leaves fields absent.
	if p.Enricher != nil {
		p.Enricher.Enrich(ctx, j.Domain, result)
	}

	return result, j.expand(ctx, data.peers), nil
}

// fetch retrieves the instance's self-description documents. The
// nodeinfo and site requests run concurrently and both must succeed;
// partial data is never accepted. The federation-peers endpoint is only
// consulted when the site response does not embed the peer lists.
func (j *Job) fetch(ctx context.Context) (*instanceData, error) {
	p := j.params
	data := &instanceData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		node, err := j.fetchNodeInfo(gctx)
		if err != nil {
			return err
		}
		data.node = node
		return nil
	})
	g.Go(func() error {
		body, err := client.Fetch(gctx, p.Client, "https://"+j.Domain+"/api/v3/site")
		if err != nil {
			return failTransport(err)
		}
		site, err := nodeinfo.ParseSiteInfo(body)
		if err != nil {
			return failSchema(err)
		}
		data.site = site
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if peers := data.site.FederatedPeers(); peers != nil {
		data.peers = peers
		return data, nil
	}

	body, err := client.Fetch(ctx, p.Client, "https://"+j.Domain+"/api/v3/federated_instances")
	if err != nil {
		return nil, failTransport(err)
	}
	peers, err := nodeinfo.ParseFederation(body)
	if err != nil {
		return nil, failSchema(err)
	}
	data.peers = peers
	return data, nil
}

// fetchNodeInfo tries the direct nodeinfo path first and falls back to
// the well-known discovery document when the direct payload does not
// resolve to a known schema.
func (j *Job) fetchNodeInfo(ctx context.Context) (*nodeinfo.NodeInfo, error) {
	p := j.params

	body, directErr := client.Fetch(ctx, p.Client, "https://"+j.Domain+"/nodeinfo/2.0.json")
	if directErr == nil {
		if node, err := nodeinfo.ParseNodeInfo(body); err == nil {
			return node, nil
		}
	}

	wkBody, err := client.Fetch(ctx, p.Client, "https://"+j.Domain+"/.well-known/nodeinfo")
	if err != nil {
		if directErr != nil {
			return nil, failTransport(directErr)
		}
		return nil, failTransport(err)
	}
	wk, err := nodeinfo.ParseWellKnown(wkBody)
	if err != nil {
		return nil, failSchema(err)
	}
	nodeURL, err := wk.NodeInfoURL()
	if err != nil {
		return nil, failSchema(err)
	}

	body, err = client.Fetch(ctx, p.Client, nodeURL)
	if err != nil {
		return nil, failTransport(err)
	}
	node, err := nodeinfo.ParseNodeInfo(body)
	if err != nil {
		return nil, failSchema(err)
	}
	return node, nil
}

// validate applies the identity, software-family, and version gates.
func (j *Job) validate(data *instanceData) error {
	p := j.params

	// An instance whose canonical actor identity names a different host
	// is misconfigured or impersonating another instance; its numbers
	// would be attributed to the wrong domain.
	if actor := data.site.ActorDomain(); actor != "" && actor != j.Domain {
		return &jobError{FailIdentity, fmt.Errorf("actor domain %q does not match %q", actor, j.Domain)}
	}

	software := strings.ToLower(data.node.Software.Name)
	if _, ok := acceptedSoftware[software]; !ok {
		return &jobError{FailPolicy, fmt.Errorf("unrecognized software %q", data.node.Software.Name)}
	}

	if !p.Gate.Accepts(data.node.Software.Version) {
		return &jobError{FailPolicy, fmt.Errorf("version %q below minimum %s",
			data.node.Software.Version, p.Gate.Minimum())}
	}

	return nil
}

// expand turns the discovered peer lists into child jobs. Only linked
// peers are crawled; allowed/blocked are recorded in the result but an
// instance blocking another says nothing about whether that other
// instance is reachable through a different edge.
//
// The distance bound is enforced here, at emission: a job whose children
// would exceed it emits nothing. Malformed peer entries are dropped one
// by one and never affect the job itself.
func (j *Job) expand(ctx context.Context, peers *nodeinfo.FederationLists) []*Job {
	p := j.params

	if peers == nil || j.Distance >= p.MaxDistance || ctx.Err() != nil {
		return nil
	}

	children := make([]*Job, 0, len(peers.Linked))
	for _, raw := range peers.Linked {
		peer, err := model.NewDomain(raw)
		if err != nil {
			continue
		}
		host := peer.String()
		if p.excluded(host) || p.Visited.Contains(host) {
			continue
		}
		children = append(children, &Job{
			Domain:   host,
			Distance: j.Distance + 1,
			params:   p,
		})
	}
	return children
}

// buildResult folds the fetched documents into the output record.
func (j *Job) buildResult(data *instanceData) *model.CrawlResult {
	return &model.CrawlResult{
		Domain:              j.Domain,
		Name:                data.site.Name(),
		Version:             data.node.Software.Version,
		Icon:                data.site.Icon(),
		OpenRegistrations:   data.node.OpenRegistrations,
		TotalUsers:          data.site.TotalUsers(),
		UsersActiveDay:      data.site.ActiveUsers(nodeinfo.WindowDay),
		UsersActiveWeek:     data.site.ActiveUsers(nodeinfo.WindowWeek),
		UsersActiveMonth:    data.site.ActiveUsers(nodeinfo.WindowMonth),
		UsersActiveHalfYear: data.site.ActiveUsers(nodeinfo.WindowHalfYear),
		Posts:               data.site.Posts(),
		Comments:            data.site.Comments(),
		LinkedInstances:     data.peers.Linked,
		AllowedInstances:    data.peers.Allowed,
		BlockedInstances:    data.peers.Blocked,
	}
}
