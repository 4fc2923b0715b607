package crawler

import "sync"

// jobQueue is the unbounded multi-producer/multi-consumer work queue.
// It doubles as the run's completion detector: active counts every job
// that is queued or currently executing, and the queue closes itself the
// moment active drops to zero.
//
// Design decision: The queue must be unbounded because workers push
// child jobs into the same queue they consume from; with a bounded
// channel a full buffer would deadlock the pool. A slice guarded by a
// mutex and condition variable gives unbounded capacity and lets the
// close decision share the same critical section as the count.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*Job
	active int
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues a job and increments the active count.
// It returns false if the queue has already closed; a well-behaved
// caller only sees that after the run is over.
func (q *jobQueue) push(j *Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, j)
	q.active++
	q.cond.Signal()
	return true
}

// pop blocks until a job is available or the queue is permanently empty.
// The second return value is false once the queue has closed.
func (q *jobQueue) pop() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	j := q.items[0]
	q.items = q.items[1:]
	return j, true
}

// finish marks one job as fully executed, children already pushed.
// When the active count reaches zero the frontier is provably exhausted:
// nothing is queued and nothing is running, so no new job can ever be
// produced. The queue closes itself and exactly one caller, the one that
// observed the drop to zero, gets true back and closes the result channel.
func (q *jobQueue) finish() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active--
	if q.active == 0 && !q.closed {
		q.closed = true
		q.cond.Broadcast()
		return true
	}
	return false
}
