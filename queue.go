package pool

import "sync"

// orderLog is the FIFO of waiterKind tags recording cross-kind enrolment
// order (C4). It, and the two typed queues below, realize a lock-free
// MPMC FIFO's ordering guarantee with the ordinary Go idiom of a mutex
// guarding a slice (append at the back, reslice from the front) -- simple,
// though not lock-free, and all three critical
// sections here are O(1) append/remove-from-front, so contention is the
// same shape a real lock-free queue would have without the complexity.
type orderLog struct {
	mu   sync.Mutex
	tags []waiterKind
}

func (o *orderLog) push(k waiterKind) {
	o.mu.Lock()
	o.tags = append(o.tags, k)
	o.mu.Unlock()
}

func (o *orderLog) pop() (waiterKind, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.tags) == 0 {
		return 0, false
	}
	k := o.tags[0]
	o.tags = o.tags[1:]
	return k, true
}

func (o *orderLog) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tags)
}

// blockingQueue is the FIFO of enrolled blockingWaiter records.
type blockingQueue[T any] struct {
	mu    sync.Mutex
	items []*blockingWaiter[T]
}

func (q *blockingQueue[T]) push(w *blockingWaiter[T]) {
	q.mu.Lock()
	q.items = append(q.items, w)
	q.mu.Unlock()
}

func (q *blockingQueue[T]) pop() (*blockingWaiter[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	w := q.items[0]
	q.items = q.items[1:]
	return w, true
}

func (q *blockingQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// deferredQueue is the FIFO of enrolled deferredWaiter records.
type deferredQueue[T any] struct {
	mu    sync.Mutex
	items []*deferredWaiter[T]
}

func (q *deferredQueue[T]) push(w *deferredWaiter[T]) {
	q.mu.Lock()
	q.items = append(q.items, w)
	q.mu.Unlock()
}

func (q *deferredQueue[T]) pop() (*deferredWaiter[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	w := q.items[0]
	q.items = q.items[1:]
	return w, true
}

func (q *deferredQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
