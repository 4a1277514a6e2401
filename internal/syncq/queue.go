// Package syncq provides the in-order reconciliation queue used by the cart
// and wishlist stores. Local mutations apply immediately; their network
// reconciliation tasks run asynchronously, serialized per entity key so a
// later task always observes the server identifiers patched by an earlier one.
package syncq

import "sync"

// Queue runs submitted tasks asynchronously, preserving submission order for
// tasks that share a key. Tasks under different keys run concurrently.
type Queue struct {
	mu      sync.Mutex
	pending map[string][]func()
	active  map[string]bool
	wg      sync.WaitGroup
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{
		pending: make(map[string][]func()),
		active:  make(map[string]bool),
	}
}

// Enqueue schedules task behind any tasks already queued for key.
func (q *Queue) Enqueue(key string, task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.wg.Add(1)
	q.pending[key] = append(q.pending[key], task)
	if !q.active[key] {
		q.active[key] = true
		go q.drain(key)
	}
	q.mu.Unlock()
}

func (q *Queue) drain(key string) {
	for {
		q.mu.Lock()
		tasks := q.pending[key]
		if len(tasks) == 0 {
			q.active[key] = false
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		task := tasks[0]
		q.pending[key] = tasks[1:]
		q.mu.Unlock()

		task()
		q.wg.Done()
	}
}

// Wait blocks until every task enqueued so far has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}
