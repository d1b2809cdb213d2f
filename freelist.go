package pool

// freeList is the MPMC FIFO of currently idle slots (C3). It is backed by
// a buffered channel sized to Policy.PoolSize: since the pool never holds
// more live slots than that, and a slot is only ever pushed here when it
// is neither held nor already handed to a waiter, the channel can never
// overflow in correct use -- push still guards against it defensively
// rather than silently dropping a slot.
type freeList[T any] struct {
	ch chan *Slot[T]
}

func newFreeList[T any](capacity int) *freeList[T] {
	return &freeList[T]{ch: make(chan *Slot[T], capacity)}
}

// tryPop returns an idle slot if one is available, without blocking.
func (f *freeList[T]) tryPop() (*Slot[T], bool) {
	select {
	case s := <-f.ch:
		return s, true
	default:
		return nil, false
	}
}

// push returns a slot to the free list. It never blocks in correct usage;
// a full free list indicates a slot-accounting bug upstream.
func (f *freeList[T]) push(s *Slot[T]) {
	select {
	case f.ch <- s:
	default:
		panic("pool: free list overflow, more slots returned than the pool ever created")
	}
}

// len reports the number of currently idle slots. Racy by nature -- useful
// only for introspection snapshots.
func (f *freeList[T]) len() int { return len(f.ch) }
