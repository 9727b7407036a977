package reconciler

// pending is one deferred change awaiting a dependency-change trigger.
type pending struct {
	key  string
	data map[string]string
}

// retryQueue holds deferred changes in arrival order. There is no
// deduplication by key: a later SET for an already-queued key coexists with
// the earlier entry, and the manager's own apply logic is responsible for
// shedding staleness.
type retryQueue struct {
	items []pending
}

func (q *retryQueue) push(key string, data map[string]string) {
	q.items = append(q.items, pending{key: key, data: data})
}

// drain makes a single front-to-back pass, calling apply for each item.
// Items for which apply returns true are dropped; the rest are kept in
// their original relative order. It does not loop until empty. The pass
// runs on a detached snapshot so that reentrant pushes (apply writing into
// the directory and re-triggering the owner) land behind the kept items.
func (q *retryQueue) drain(apply func(key string, data map[string]string) bool) {
	items := q.items
	q.items = nil
	var kept []pending
	for _, item := range items {
		if !apply(item.key, item.data) {
			kept = append(kept, item)
		}
	}
	q.items = append(kept, q.items...)
}

func (q *retryQueue) len() int {
	return len(q.items)
}
