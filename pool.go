/*
 * Copyright (c) 2020-present unTill Pro, Ltd.
 */

// Package pool implements a generic, thread-safe pool of expensive
// reusable resources. It bounds concurrent creation to a configured
// capacity, lends resources synchronously (Acquire) or via a future
// (AcquireDeferred), serves waiters in strict FIFO order across both
// kinds when the pool is saturated, and tracks a coarse available/
// unavailable health state with a background recovery probe.
//
// Creation of the resource value itself and health-probe predicates are
// the caller's concern, wired in through a policy.Policy[T]. Statistics
// and StatisticsFull render plain summary strings from this package.
package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-respool/respool/policy"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Pool is the concurrency engine: a free list, a pair of FIFO waiter
// queues with a shared order log, a capacity-growth gate, and an
// availability state machine with its recovery probe.
type Pool[T any] struct {
	policy policy.Policy[T]
	log    zerolog.Logger

	free      *freeList[T]
	blockingQ blockingQueue[T]
	deferredQ deferredQueue[T]
	order     orderLog

	// growth gate: a weighted semaphore sized to PoolSize. A successful
	// TryAcquire(1) reserves one unit of capacity before OnCreate runs, so
	// the capacity invariant holds even though OnCreate may be slow and
	// runs outside of any mutex.
	growth *semaphore.Weighted

	totalSlots atomic.Int64

	slotsMu  sync.Mutex
	allSlots []*Slot[T] // every slot ever created, for the probe's timestamp reset and StatisticsFull

	availMu       sync.Mutex
	available     bool
	unavailableAt time.Time
	probeCancel   context.CancelFunc
	probeGroup    *errgroup.Group

	timeoutLogLimiter *rate.Limiter

	closeOnce sync.Once
	closeCtx  context.Context
	closeFn   context.CancelFunc
}

// New constructs a Pool bound to the given Policy. The pool starts
// Available and with zero slots; slots are created lazily as Acquire
// calls need them, up to policy.PoolSize().
func New[T any](p policy.Policy[T]) *Pool[T] {
	return NewWithLogger(p, zerolog.Nop())
}

// NewWithLogger is like New but lets the caller supply a configured
// zerolog.Logger instead of a no-op one.
func NewWithLogger[T any](p policy.Policy[T], log zerolog.Logger) *Pool[T] {
	size := p.PoolSize()
	if size < 1 {
		panic("pool: PoolSize must be >= 1")
	}
	ctx, cancel := context.WithCancel(context.Background())
	pl := &Pool[T]{
		policy:            p,
		log:               log.With().Str("pool", p.Name()).Logger(),
		free:              newFreeList[T](size),
		growth:            semaphore.NewWeighted(int64(size)),
		available:         true,
		timeoutLogLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
		closeCtx:          ctx,
		closeFn:           cancel,
	}
	RegisterObjectsInUseCounter(pl.objectsInUse)
	return pl
}

// objectsInUse reports how many of this pool's slots are currently lent
// out: every slot it ever created minus whatever currently sits on the
// free list.
func (p *Pool[T]) objectsInUse() uint64 {
	total := p.totalSlots.Load()
	free := int64(p.free.len())
	if inUse := total - free; inUse > 0 {
		return uint64(inUse)
	}
	return 0
}

// Close stops the recovery probe, if one is running, and releases the
// pool's internal shutdown context. It does not touch outstanding slots:
// callers that still hold one are expected to Release it as usual.
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		p.closeFn()
		p.availMu.Lock()
		g := p.probeGroup
		p.availMu.Unlock()
		if g != nil {
			_ = g.Wait()
		}
	})
}

// Acquire obtains a slot, blocking up to timeout (or Policy.SyncGetTimeout
// if timeout <= 0) if none is immediately available and the pool is at
// capacity. See the package doc for the full algorithm.
func (p *Pool[T]) Acquire(timeout time.Duration) (*Slot[T], error) {
	return p.acquire(timeout, true)
}

// acquire implements both the regular caller-facing path and the recovery
// probe's bypass path (checkAvailable=false skips the availability gate
// and waiter enrolment entirely, trying only the free list and capacity
// growth, so a probe attempt never queues behind ordinary callers).
func (p *Pool[T]) acquire(timeout time.Duration, checkAvailable bool) (*Slot[T], error) {
	if checkAvailable && !p.IsAvailable() {
		return nil, ErrUnavailable
	}

	if slot, ok := p.free.tryPop(); ok {
		return p.finishGet(slot)
	}

	if slot, ok := p.tryGrow(); ok {
		return p.finishGet(slot)
	}

	if !checkAvailable {
		return nil, ErrUnavailable
	}

	if timeout <= 0 {
		timeout = p.policy.SyncGetTimeout()
	}
	slot, err := p.waitBlocking(timeout)
	if err != nil {
		return nil, err
	}
	return p.finishGet(slot)
}

// tryGrow attempts the capacity-growth path: reserve one
// unit of capacity via the semaphore (the double-checked equivalent of
// "under the growth mutex, re-check capacity"), then create the value
// outside of any lock.
func (p *Pool[T]) tryGrow() (*Slot[T], bool) {
	if !p.growth.TryAcquire(1) {
		return nil, false
	}
	value, err := p.policy.OnCreate()
	if err != nil {
		// Creation failed: release the reservation so a later attempt can
		// retry growth instead of permanently losing that unit of capacity.
		p.growth.Release(1)
		p.log.Warn().Err(err).Msg("pool: OnCreate failed during growth")
		return nil, false
	}
	slot := &Slot[T]{value: value, pool: p}
	p.totalSlots.Add(1)
	p.slotsMu.Lock()
	p.allSlots = append(p.allSlots, slot)
	p.slotsMu.Unlock()
	return slot, true
}

// waitBlocking enrolls the caller as a blocking waiter and waits up to
// timeout, racing a releaser's hand-off against the waiter's own timeout
// without ever losing a slot to either side.
func (p *Pool[T]) waitBlocking(timeout time.Duration) (*Slot[T], error) {
	w := newBlockingWaiter[T]()
	p.blockingQ.push(w)
	p.order.push(kindBlocking)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		w.mu.Lock()
		slot := w.result
		w.mu.Unlock()
		return slot, nil
	case <-timer.C:
		if slot, handedOff := w.tryAbandon(); handedOff {
			return slot, nil
		}
		if p.timeoutLogLimiter.Allow() {
			p.log.Debug().Msg("pool: blocking acquire abandoned on timeout")
		}
		p.policy.OnGetTimeout()
		if p.policy.ThrowOnGetTimeout() {
			return nil, ErrTimeout
		}
		return nil, nil
	}
}

// finishGet runs the pre-use hook and, on success, stamps the slot's
// get metadata. The slot is considered held (and thus releasable, once)
// from the moment it leaves the free list, before OnGet even runs -- an
// OnGet failure routes through the ordinary Release path below, not a
// bypass of it.
func (p *Pool[T]) finishGet(slot *Slot[T]) (*Slot[T], error) {
	if slot == nil {
		return nil, nil
	}
	slot.released.Store(false)
	if err := p.policy.OnGet(slot.value); err != nil {
		p.Release(slot, false)
		return nil, err
	}
	p.stampGet(slot)
	return slot, nil
}

func (p *Pool[T]) stampGet(slot *Slot[T]) {
	slot.getTimes.Add(1)
	slot.lastGetTime.Store(time.Now().UnixNano())
	caller := callerTag(5)
	slot.lastGetCaller.Store(&caller)
	if isDebug.Load() {
		site := getStackTrace().string()
		slot.borrowSite.Store(&site)
		trackBorrow(site)
	}
}

// callerTag returns a short "file:line" identifier for the caller `skip`
// frames up, standing in for a thread identifier -- Go has no stable
// goroutine ID, so a call-site tag plays the same diagnostic role the
// package's debug-mode stack traces play.
func callerTag(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}
