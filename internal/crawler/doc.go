// Package crawler implements the concurrent crawl engine that discovers
// a federated network from seed instances.
//
// # Architecture
//
// A fixed pool of workers consumes crawl jobs from one shared, unbounded
// queue. Each job probes a single instance: it claims the domain in the
// shared visited set, fetches the instance's self-description documents,
// validates software identity and version, emits child jobs for newly
// discovered peers within the hop-distance bound, and sends exactly one
// result on success. Failures are counted and swallowed; one bad
// instance never aborts the run.
//
// # Components
//
//   - VisitedSet: mutex-guarded claim ledger, the single source of truth
//     for "has this instance already been taken by some worker"
//   - Job: one unit of work (domain, hop distance, shared parameters)
//   - jobQueue: unbounded multi-producer/multi-consumer queue fused with
//     the run's completion accounting
//   - Pool orchestration in Run: worker lifecycle and result collection
//
// # Completion
//
// Termination is detected without any explicit "done" signal. The queue
// tracks an active count covering both queued and executing jobs: a push
// increments it and a worker decrements it only after its job has fully
// executed, children included. Because children are pushed before their
// parent is marked finished, the count can only reach zero when the
// frontier is exhausted, at which point the queue closes itself and the
// result channel closes with it. The orchestrator just drains results
// until closure; there is no polling, job counting, or timeout.
package crawler
