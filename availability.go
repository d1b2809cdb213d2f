package pool

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// IsAvailable reports the pool's current coarse health state (C7). A pool
// starts Available and only a recovery-probe success ever flips it back
// from Unavailable.
func (p *Pool[T]) IsAvailable() bool {
	p.availMu.Lock()
	defer p.availMu.Unlock()
	return p.available
}

// UnavailableSince reports when the pool last transitioned to Unavailable.
// The second return value is false if the pool is currently Available.
func (p *Pool[T]) UnavailableSince() (time.Time, bool) {
	p.availMu.Lock()
	defer p.availMu.Unlock()
	if p.available {
		return time.Time{}, false
	}
	return p.unavailableAt, true
}

// SetUnavailable transitions the pool to Unavailable and starts its
// recovery probe, unless it is already Unavailable. It reports whether the
// transition happened, so a caller driving this from several goroutines at
// once (e.g. several failed OnGet hooks discovering the same outage) never
// starts more than one probe.
func (p *Pool[T]) SetUnavailable() bool {
	p.availMu.Lock()
	if !p.available {
		p.availMu.Unlock()
		return false
	}
	p.available = false
	p.unavailableAt = time.Now()

	ctx, cancel := context.WithCancel(p.closeCtx)
	p.probeCancel = cancel
	var g errgroup.Group
	p.probeGroup = &g
	p.availMu.Unlock()

	p.policy.OnUnavailable()
	p.log.Warn().Msg("pool: marked unavailable, starting recovery probe")

	g.Go(func() error {
		p.runProbe(ctx)
		return nil
	})
	return true
}

// runProbe is the recovery-probe loop: it wakes every
// Policy.CheckInterval and retries until a probe succeeds or the pool is
// closed.
func (p *Pool[T]) runProbe(ctx context.Context) {
	ticker := time.NewTicker(p.policy.CheckInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.probeOnce() {
				return
			}
		}
	}
}

// probeOnce runs a single recovery attempt: obtain a slot via the
// availability-gate-bypassing acquire path, run the Policy's predicate on
// it, and always release it afterwards regardless of outcome. It reports
// whether the pool became Available as a result.
func (p *Pool[T]) probeOnce() bool {
	slot, err := p.acquire(0, false)
	if err != nil || slot == nil {
		if p.timeoutLogLimiter.Allow() {
			p.log.Debug().Err(err).Msg("pool: recovery probe could not obtain a slot")
		}
		return false
	}

	ok := p.safeCheckAvailable(slot.value)
	p.Release(slot, false)

	if !ok {
		if p.timeoutLogLimiter.Allow() {
			p.log.Debug().Msg("pool: recovery probe check failed, still unavailable")
		}
		return false
	}

	p.becomeAvailable()
	return true
}

// safeCheckAvailable runs Policy.OnCheckAvailable, treating a panic the
// same as a false result -- a misbehaving predicate must not take the
// probe goroutine down with it.
func (p *Pool[T]) safeCheckAvailable(value T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn().Interface("panic", r).Msg("pool: OnCheckAvailable panicked")
			ok = false
		}
	}()
	return p.policy.OnCheckAvailable(value)
}

// becomeAvailable performs the Unavailable -> Available transition: flips
// the flag, resets every known slot's get/return timestamps to the zero
// sentinel (so age-sensitive policies don't see a burst of activity at the
// moment of the outage as still "recent"), and notifies the Policy.
func (p *Pool[T]) becomeAvailable() {
	p.availMu.Lock()
	if p.available {
		p.availMu.Unlock()
		return
	}
	p.available = true
	p.unavailableAt = time.Time{}
	p.probeGroup = nil
	p.probeCancel = nil
	p.resetSlotTimestamps()
	p.availMu.Unlock()

	p.policy.OnAvailable()
	p.log.Info().Msg("pool: recovery probe succeeded, marked available")
}

// resetSlotTimestamps zeroes LastGetTime/LastReturnTime on every slot the
// pool has ever created.
func (p *Pool[T]) resetSlotTimestamps() {
	p.slotsMu.Lock()
	slots := make([]*Slot[T], len(p.allSlots))
	copy(slots, p.allSlots)
	p.slotsMu.Unlock()

	for _, s := range slots {
		s.lastGetTime.Store(0)
		s.lastReturnTime.Store(0)
	}
}
