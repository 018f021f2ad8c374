package queue

import "sync"

// FIFO is an unbounded in-memory queue with strict insertion order.
// Push and Pop are safe for concurrent use; each FIFO is its own unit
// of synchronization and no ordering is promised across queues.
type FIFO[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewFIFO creates an empty queue.
func NewFIFO[T any]() *FIFO[T] {
	return &FIFO[T]{}
}

// Push appends an item to the tail.
func (q *FIFO[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// Pop removes and returns the head item. The second return value is
// false when the queue is empty.
func (q *FIFO[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (q *FIFO[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
