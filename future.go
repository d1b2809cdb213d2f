package pool

import "context"

// Future represents a slot that will become available once some other
// caller releases one. It is returned by AcquireDeferred. There is no
// intrinsic timeout: race it against your own context if you need one.
type Future[T any] struct {
	w *deferredWaiter[T]
}

// Await blocks until the future resolves or ctx is done. If ctx is done
// first, Await tries to cancel the underlying waiter; if a release had
// already resolved it in the meantime, the result is still returned rather
// than lost -- the same "releaser wins, waiter must still claim it" race
// discipline blocking waiters use applies here to deferred ones.
func (f *Future[T]) Await(ctx context.Context) (*Slot[T], error) {
	select {
	case res := <-f.w.resultCh:
		return res.slot, res.err
	case <-ctx.Done():
		if f.w.tryCancel() {
			return nil, ctx.Err()
		}
		res := <-f.w.resultCh
		return res.slot, res.err
	}
}

// Cancel abandons the future. It reports false if the future had already
// resolved, in which case the caller must still drain the result (e.g. via
// Await) rather than let the slot leak.
func (f *Future[T]) Cancel() bool {
	return f.w.tryCancel()
}

// AcquireDeferred enrolls the caller as a deferred waiter if the pool is
// saturated, or resolves immediately if a slot is free or growth succeeds.
// Returns ErrQueueFull if Policy.AsyncGetCapacity is set and the deferred
// queue already holds capacity-1 waiters.
func (p *Pool[T]) AcquireDeferred() (*Future[T], error) {
	if !p.IsAvailable() {
		return nil, ErrUnavailable
	}

	if slot, ok := p.free.tryPop(); ok {
		return p.resolvedFuture(slot)
	}
	if slot, ok := p.tryGrow(); ok {
		return p.resolvedFuture(slot)
	}

	if capacity := p.policy.AsyncGetCapacity(); capacity > 0 && p.deferredQ.len() >= capacity-1 {
		return nil, ErrQueueFull
	}

	w := newDeferredWaiter[T]()
	p.deferredQ.push(w)
	p.order.push(kindDeferred)
	return &Future[T]{w: w}, nil
}

// resolvedFuture wraps an already-obtained slot in a pre-resolved Future
// so AcquireDeferred's immediate-success paths share Await's interface
// with its enrolled-waiter path.
func (p *Pool[T]) resolvedFuture(slot *Slot[T]) (*Future[T], error) {
	w := &deferredWaiter[T]{resultCh: make(chan deferredResult[T], 1), resolved: true}
	p.resolveDeferred(slot, w)
	return &Future[T]{w: w}, nil
}

// resolveDeferred runs OnGetAsync for a claimed deferred waiter and
// delivers the outcome. On hook failure the slot is fed back through
// Release instead of being handed to the waiter, the same "force release
// and propagate" rule the blocking pre-use hook follows, applied
// analogously to the deferred path. The slot is marked held, and thus
// releasable, before OnGetAsync runs, same as the blocking path.
func (p *Pool[T]) resolveDeferred(slot *Slot[T], w *deferredWaiter[T]) {
	slot.released.Store(false)
	if err := p.policy.OnGetAsync(slot.value); err != nil {
		w.deliver(deferredResult[T]{err: err})
		p.Release(slot, false)
		return
	}
	p.stampGet(slot)
	w.deliver(deferredResult[T]{slot: slot})
}
