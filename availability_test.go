package pool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAvailability_SetUnavailableRejectsNewAcquires(t *testing.T) {
	require := require.New(t)
	pol := basePolicy(1, func() (int, error) { return 1, nil })
	pol.Options.CheckInterval = time.Hour // keep the probe from firing during this test
	p := New[int](pol)
	defer p.Close()

	require.True(p.IsAvailable())
	require.True(p.SetUnavailable())
	require.False(p.IsAvailable())

	_, unavailable := p.UnavailableSince()
	require.True(unavailable)

	_, err := p.Acquire(0)
	require.ErrorIs(err, ErrUnavailable)

	_, err = p.AcquireDeferred()
	require.ErrorIs(err, ErrUnavailable)
}

func TestAvailability_SetUnavailableIsIdempotent(t *testing.T) {
	require := require.New(t)
	pol := basePolicy(1, func() (int, error) { return 1, nil })
	pol.Options.CheckInterval = time.Hour
	p := New[int](pol)
	defer p.Close()

	require.True(p.SetUnavailable())
	require.False(p.SetUnavailable())
}

func TestAvailability_RecoveryProbeRestoresAvailability(t *testing.T) {
	require := require.New(t)
	var checks int32
	pol := basePolicy(1, func() (int, error) { return 1, nil })
	pol.Options.CheckInterval = 10 * time.Millisecond
	pol.Hooks.OnCheckAvailable = func(int) bool {
		return atomic.AddInt32(&checks, 1) >= 2
	}
	var becameAvailable int32
	pol.Hooks.OnAvailable = func() { atomic.StoreInt32(&becameAvailable, 1) }
	p := New[int](pol)
	defer p.Close()

	require.True(p.SetUnavailable())

	require.Eventually(func() bool {
		return p.IsAvailable()
	}, time.Second, 5*time.Millisecond)

	require.Equal(int32(1), atomic.LoadInt32(&becameAvailable))
	require.GreaterOrEqual(atomic.LoadInt32(&checks), int32(2))
}

func TestAvailability_ProbeResetsSlotTimestamps(t *testing.T) {
	require := require.New(t)
	pol := basePolicy(1, func() (int, error) { return 1, nil })
	pol.Options.CheckInterval = 10 * time.Millisecond
	p := New[int](pol)
	defer p.Close()

	slot, err := p.Acquire(0)
	require.NoError(err)
	require.NoError(p.Release(slot, false))
	require.False(slot.LastGetTime().IsZero())

	require.True(p.SetUnavailable())
	require.Eventually(func() bool { return p.IsAvailable() }, time.Second, 5*time.Millisecond)

	require.True(slot.LastGetTime().IsZero())
	require.True(slot.LastReturnTime().IsZero())
}

func TestClose_StopsRecoveryProbe(t *testing.T) {
	require := require.New(t)
	pol := basePolicy(1, func() (int, error) { return 0, errBoom })
	pol.Options.CheckInterval = 5 * time.Millisecond
	p := New[int](pol)

	require.True(p.SetUnavailable())
	time.Sleep(20 * time.Millisecond)
	p.Close()
	require.False(p.IsAvailable())
}
