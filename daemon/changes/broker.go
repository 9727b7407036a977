package changes

import (
	"sync"
)

// Broker is the in-process hub between transport edges (the socket feed,
// tests) and the event loop. Producers call Publish from any goroutine;
// the event loop consumes through the per-table Sources handed out by
// Subscribe. The mutex only guards this producer/consumer boundary; all
// dispatch downstream of Pop stays on the loop goroutine.
type Broker struct {
	mu     sync.Mutex
	queues map[Table]*queue
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{queues: make(map[Table]*queue)}
}

// Subscribe returns the source for t, creating it on first use. The same
// source is shared by every subscriber of the same table.
func (b *Broker) Subscribe(t Table) (Source, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue(t), nil
}

// Publish appends c to the table's queue and signals readiness.
func (b *Broker) Publish(t Table, c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q := b.queue(t)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
	if !q.signalled {
		close(q.ready)
		q.signalled = true
	}
}

// queue returns the table's queue, creating it if needed. Caller holds b.mu.
func (b *Broker) queue(t Table) *queue {
	q, ok := b.queues[t]
	if !ok {
		q = &queue{ready: make(chan struct{})}
		b.queues[t] = q
	}
	return q
}

// queue is one table's pending-change FIFO. The ready channel is closed
// while items are pending and replaced with a fresh open channel when the
// queue drains, matching one-shot watch-channel semantics.
type queue struct {
	mu        sync.Mutex
	items     []Change
	ready     chan struct{}
	signalled bool
}

func (q *queue) Pop() (Change, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Change{}, false
	}
	c := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 && q.signalled {
		q.ready = make(chan struct{})
		q.signalled = false
	}
	return c, true
}

func (q *queue) Readiness() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready
}
