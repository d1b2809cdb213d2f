package pool

import (
	"runtime"
	"time"
)

// Release returns slot to the pool. If any live waiter is enrolled, it is
// handed the slot in strict enrolment order; otherwise the slot goes back
// on the free list. If recreate is true, the slot's value is
// replaced via Policy.OnDestroy/OnCreate before any of that happens.
//
// Release is safe to call exactly once per held slot. Calling it twice
// for the same acquisition panics -- the slot's released flag is cleared
// only when the slot is next handed out, so a second Release before that
// happens is unambiguously a caller bug, not a race to arbitrate.
func (p *Pool[T]) Release(slot *Slot[T], recreate bool) error {
	if slot.pool != p {
		panic(ErrForeignSlot)
	}
	if !slot.released.CompareAndSwap(false, true) {
		panic("pool: slot already released")
	}

	if isDebug.Load() {
		if site := slot.borrowSite.Swap(nil); site != nil {
			untrackBorrow(*site)
		}
	}

	var recreateErr error
	if recreate {
		p.policy.OnDestroy(slot.value)
		value, err := p.policy.OnCreate()
		if err != nil {
			recreateErr = err
		} else {
			slot.value = value
		}
	}

	caller := callerTag(2)
	slot.lastReturnCaller.Store(&caller)
	slot.lastReturnTime.Store(time.Now().UnixNano())

	if p.handOff(slot) {
		return recreateErr
	}

	returnErr := p.policy.OnReturn(slot.value)
	// OnReturn's failure must not lose the slot: push it to the free list
	// regardless, then surface whichever error the caller should see.
	p.free.push(slot)
	if recreateErr != nil {
		return recreateErr
	}
	return returnErr
}

// handOff dispatches slot to the next live waiter recorded in the order
// log, regardless of which typed queue it lives on. It reports whether
// the slot was handed to a live waiter; if so, the
// caller must not also push it to the free list.
func (p *Pool[T]) handOff(slot *Slot[T]) bool {
	for {
		kind, ok := p.order.pop()
		if !ok {
			return false
		}
		switch kind {
		case kindBlocking:
			w := p.popBlockingRetrying()
			if w.tryResolve(slot) {
				return true
			}
			// Timed out between enrolment and dispatch: discard and try
			// the next tag, per the fairness invariant (stale waiters are
			// skipped without perturbing survivors).
		case kindDeferred:
			w := p.popDeferredRetrying()
			if w.tryClaim() {
				p.resolveDeferred(slot, w)
				return true
			}
			// Already cancelled: discard and try the next tag.
		}
	}
}

// popBlockingRetrying pops the blocking queue, retrying with a brief yield
// if the order log's tag raced ahead of the enrolling producer's second
// push (the order-log entry and the queue entry are pushed as two separate
// steps, so a dequeuer can briefly observe the tag before the matching
// record lands).
func (p *Pool[T]) popBlockingRetrying() *blockingWaiter[T] {
	for {
		if w, ok := p.blockingQ.pop(); ok {
			return w
		}
		runtime.Gosched()
	}
}

func (p *Pool[T]) popDeferredRetrying() *deferredWaiter[T] {
	for {
		if w, ok := p.deferredQ.pop(); ok {
			return w
		}
		runtime.Gosched()
	}
}
