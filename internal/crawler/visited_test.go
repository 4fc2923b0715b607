package crawler

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestVisitedSetClaim(t *testing.T) {
	t.Parallel()

	v := NewVisitedSet()

	if !v.Claim("a.example") {
		t.Error("first claim must succeed")
	}
	if v.Claim("a.example") {
		t.Error("second claim of the same domain must fail")
	}
	if !v.Claim("b.example") {
		t.Error("claim of a different domain must succeed")
	}
	if v.Len() != 2 {
		t.Errorf("expected 2 claimed domains, got %d", v.Len())
	}
}

func TestVisitedSetContains(t *testing.T) {
	t.Parallel()

	v := NewVisitedSet()
	if v.Contains("a.example") {
		t.Error("empty set must not contain anything")
	}
	v.Claim("a.example")
	if !v.Contains("a.example") {
		t.Error("claimed domain must be contained")
	}
	// Contains never claims.
	if !v.Contains("a.example") || v.Len() != 1 {
		t.Error("Contains must not mutate the set")
	}
}

func TestVisitedSetClaimIsAtomic(t *testing.T) {
	t.Parallel()

	// Many goroutines race to claim the same domain; exactly one may win.
	const racers = 64

	v := NewVisitedSet()
	var wins atomic.Int64
	var start, wg sync.WaitGroup
	start.Add(1)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start.Wait()
			if v.Claim("contested.example") {
				wins.Add(1)
			}
		}()
	}
	start.Done()
	wg.Wait()

	if n := wins.Load(); n != 1 {
		t.Errorf("expected exactly one winning claim, got %d", n)
	}
	if v.Len() != 1 {
		t.Errorf("expected 1 claimed domain, got %d", v.Len())
	}
}
