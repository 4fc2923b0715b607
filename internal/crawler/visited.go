package crawler

import "sync"

// VisitedSet is the shared deduplication ledger for one crawl run.
// Every worker consults it before issuing any network call, so a domain
// discovered concurrently from several directions is probed at most once.
//
// The critical section is a map lookup and insert only. No I/O may ever
// happen under the lock, or the whole pool would serialize behind
// network latency.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Claim atomically tests membership and inserts the domain if absent.
// It returns true if the caller won the claim and may proceed to fetch,
// false if some other worker already holds the domain.
func (v *VisitedSet) Claim(domain string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[domain]; ok {
		return false
	}
	v.seen[domain] = struct{}{}
	return true
}

// Contains reports membership without claiming. Workers use it at child
// emission time to skip obviously redundant jobs; it is an optimization
// only, the atomic Claim at execution time remains the correctness point.
func (v *VisitedSet) Contains(domain string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[domain]
	return ok
}

// Len returns the number of claimed domains.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
