package pool

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"github.com/go-respool/respool/policy"
)

var errBoom = errors.New("boom")

func basePolicy(size int, onCreate func() (int, error)) *policy.Base[int] {
	return policy.NewBase[int](policy.Options{
		PoolSize:          size,
		SyncGetTimeout:    200 * time.Millisecond,
		ThrowOnGetTimeout: true,
	}, onCreate)
}

func TestBasicUsage_AcquireRelease(t *testing.T) {
	require := require.New(t)
	var created int32
	p := New[int](basePolicy(4, func() (int, error) {
		return int(atomic.AddInt32(&created, 1)), nil
	}))

	slot, err := p.Acquire(0)
	require.NoError(err)
	require.Equal(1, slot.Value())
	require.Equal(uint64(1), slot.GetTimes())

	require.NoError(p.Release(slot, false))
	require.Equal(int32(1), created)

	slot2, err := p.Acquire(0)
	require.NoError(err)
	require.Equal(1, slot2.Value()) // reused from the free list, not recreated
	require.NoError(p.Release(slot2, false))
}

func TestBasicUsage_GrowsUpToCapacity(t *testing.T) {
	require := require.New(t)
	var created int32
	p := New[int](basePolicy(3, func() (int, error) {
		return int(atomic.AddInt32(&created, 1)), nil
	}))

	var slots []*Slot[int]
	var values []int
	for i := 0; i < 3; i++ {
		s, err := p.Acquire(0)
		require.NoError(err)
		slots = append(slots, s)
		values = append(values, s.Value())
	}
	require.Equal(int32(3), created)

	// Each grow must have created a distinct value: no two acquires
	// should share the same OnCreate result.
	slices.Sort(values)
	require.Equal([]int{1, 2, 3}, values)

	for _, s := range slots {
		require.NoError(p.Release(s, false))
	}
}

func TestPoolSizeOne_SerializesConcurrentAcquires(t *testing.T) {
	require := require.New(t)
	p := New[int](basePolicy(1, func() (int, error) { return 42, nil }))

	first, err := p.Acquire(0)
	require.NoError(err)

	done := make(chan struct{})
	go func() {
		second, err := p.Acquire(time.Second)
		require.NoError(err)
		require.Equal(42, second.Value())
		require.NoError(p.Release(second, false))
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(p.Release(first, false))
	<-done
}

func TestAcquire_TimesOutWhenSaturated(t *testing.T) {
	require := require.New(t)
	p := New[int](basePolicy(1, func() (int, error) { return 1, nil }))

	held, err := p.Acquire(0)
	require.NoError(err)
	defer p.Release(held, false)

	_, err = p.Acquire(30 * time.Millisecond)
	require.ErrorIs(err, ErrTimeout)
}

func TestAcquire_NoThrowOnTimeoutReturnsNilSlot(t *testing.T) {
	require := require.New(t)
	pol := basePolicy(1, func() (int, error) { return 1, nil })
	pol.Options.ThrowOnGetTimeout = false
	p := New[int](pol)

	held, err := p.Acquire(0)
	require.NoError(err)
	defer p.Release(held, false)

	slot, err := p.Acquire(30 * time.Millisecond)
	require.NoError(err)
	require.Nil(slot)
}

func TestRelease_ForeignSlotPanics(t *testing.T) {
	require := require.New(t)
	p1 := New[int](basePolicy(1, func() (int, error) { return 1, nil }))
	p2 := New[int](basePolicy(1, func() (int, error) { return 2, nil }))

	s1, err := p1.Acquire(0)
	require.NoError(err)

	require.PanicsWithValue(ErrForeignSlot, func() { p2.Release(s1, false) })
	require.NoError(p1.Release(s1, false))
}

func TestRelease_DoubleReleasePanics(t *testing.T) {
	require := require.New(t)
	p := New[int](basePolicy(1, func() (int, error) { return 1, nil }))

	slot, err := p.Acquire(0)
	require.NoError(err)

	require.NoError(p.Release(slot, false))
	require.PanicsWithValue("pool: slot already released", func() { p.Release(slot, false) })
}

func TestOnCreateFailure_DoesNotConsumeCapacity(t *testing.T) {
	require := require.New(t)
	var attempts int32
	p := New[int](basePolicy(1, func() (int, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n == 1 {
			return 0, errBoom
		}
		return 7, nil
	}))

	_, err := p.Acquire(30 * time.Millisecond)
	require.Error(err)

	slot, err := p.Acquire(0)
	require.NoError(err)
	require.Equal(7, slot.Value())
	require.NoError(p.Release(slot, false))
}

func TestOnGetFailure_PropagatesAndReturnsSlot(t *testing.T) {
	require := require.New(t)
	pol := basePolicy(1, func() (int, error) { return 9, nil })
	pol.Hooks.OnGet = func(int) error { return errBoom }
	p := New[int](pol)

	_, err := p.Acquire(0)
	require.ErrorIs(err, errBoom)

	require.Equal(1, p.free.len()) // OnGet failure still returns the slot to the free list
	pol.Hooks.OnGet = nil
	slot, err := p.Acquire(0)
	require.NoError(err)
	require.Equal(9, slot.Value())
	require.NoError(p.Release(slot, false))
}

func TestRelease_RecreateReplacesValue(t *testing.T) {
	require := require.New(t)
	var next int32
	var destroyed []int
	pol := basePolicy(1, func() (int, error) {
		return int(atomic.AddInt32(&next, 1)), nil
	})
	pol.Hooks.OnDestroy = func(v int) { destroyed = append(destroyed, v) }
	p := New[int](pol)

	slot, err := p.Acquire(0)
	require.NoError(err)
	require.Equal(1, slot.Value())

	require.NoError(p.Release(slot, true))
	require.Equal([]int{1}, destroyed)

	slot2, err := p.Acquire(0)
	require.NoError(err)
	require.Equal(2, slot2.Value())
	require.NoError(p.Release(slot2, false))
}
