package pool

import (
	"fmt"
	"strings"
	"time"
)

// Statistics is the terse C8 summary: free/total slot counts and the
// length of each waiter queue. It acquires no lock beyond the snapshot
// reads each field needs, so the four numbers may be mildly inconsistent
// with each other under concurrent activity -- this is a diagnostic view,
// not a transactional one.
type Statistics struct {
	Free            int
	Total           int64
	BlockingWaiters int
	DeferredWaiters int
	Available       bool
}

// String renders a one-line summary suitable for logging.
func (s Statistics) String() string {
	state := "available"
	if !s.Available {
		state = "unavailable"
	}
	return fmt.Sprintf("pool: %d/%d free, %d blocking waiter(s), %d deferred waiter(s), %s",
		s.Free, s.Total, s.BlockingWaiters, s.DeferredWaiters, state)
}

// Statistics returns the terse snapshot described above.
func (p *Pool[T]) Statistics() Statistics {
	return Statistics{
		Free:            p.free.len(),
		Total:           p.totalSlots.Load(),
		BlockingWaiters: p.blockingQ.len(),
		DeferredWaiters: p.deferredQ.len(),
		Available:       p.IsAvailable(),
	}
}

// SlotSnapshot is one row of a StatisticsFull dump.
type SlotSnapshot struct {
	GetTimes         uint64
	LastGetTime      string
	LastReturnTime   string
	LastGetCaller    string
	LastReturnCaller string
}

// StatisticsFull is the C8 full dump: the terse summary plus a snapshot of
// every slot the pool has ever created.
type StatisticsFull struct {
	Statistics
	Slots []SlotSnapshot
}

// String renders the summary line followed by one indented line per slot.
func (sf StatisticsFull) String() string {
	var b strings.Builder
	b.WriteString(sf.Statistics.String())
	for i, s := range sf.Slots {
		fmt.Fprintf(&b, "\n\t[%d] gets=%d last_get=%s(%s) last_return=%s(%s)",
			i, s.GetTimes, s.LastGetTime, s.LastGetCaller, s.LastReturnTime, s.LastReturnCaller)
	}
	return b.String()
}

// StatisticsFull returns the summary plus a per-slot metadata dump, in
// creation order.
func (p *Pool[T]) StatisticsFull() StatisticsFull {
	p.slotsMu.Lock()
	slots := make([]*Slot[T], len(p.allSlots))
	copy(slots, p.allSlots)
	p.slotsMu.Unlock()

	snaps := make([]SlotSnapshot, len(slots))
	for i, s := range slots {
		snaps[i] = SlotSnapshot{
			GetTimes:         s.GetTimes(),
			LastGetTime:      formatTime(s.LastGetTime()),
			LastReturnTime:   formatTime(s.LastReturnTime()),
			LastGetCaller:    s.LastGetCaller(),
			LastReturnCaller: s.LastReturnCaller(),
		}
	}
	return StatisticsFull{Statistics: p.Statistics(), Slots: snaps}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
