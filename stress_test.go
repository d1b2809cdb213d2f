package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStress hammers the pool with far more concurrent acquirers than
// slots and checks every acquire that succeeds gets its slot back, with
// nothing leaked.
func TestStress(t *testing.T) {
	const goroutines = 1000
	var created int32
	p := New[int](basePolicy(8, func() (int, error) {
		return int(atomic.AddInt32(&created, 1)), nil
	}))

	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot, err := p.Acquire(2 * time.Second)
			if err != nil {
				return
			}
			atomic.AddInt32(&successes, 1)
			time.Sleep(time.Millisecond)
			require.NoError(t, p.Release(slot, false))
		}()
	}
	wg.Wait()

	require.Equal(t, int32(goroutines), successes)
	require.LessOrEqual(t, created, int32(8))
	require.Zero(t, GetObjectsInUse())
}

func TestStress_MixedBlockingAndDeferred(t *testing.T) {
	const goroutines = 500
	p := New[int](basePolicy(4, func() (int, error) { return 1, nil }))

	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		if i%2 == 0 {
			go func() {
				defer wg.Done()
				slot, err := p.Acquire(2 * time.Second)
				if err != nil {
					return
				}
				atomic.AddInt32(&successes, 1)
				require.NoError(t, p.Release(slot, false))
			}()
		} else {
			go func() {
				defer wg.Done()
				f, err := p.AcquireDeferred()
				if err != nil {
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				slot, err := f.Await(ctx)
				if err != nil || slot == nil {
					return
				}
				atomic.AddInt32(&successes, 1)
				require.NoError(t, p.Release(slot, false))
			}()
		}
	}
	wg.Wait()

	require.Equal(t, int32(goroutines), successes)
	require.Zero(t, GetObjectsInUse())
}

func BenchmarkAcquireRelease(b *testing.B) {
	p := New[int](basePolicy(16, func() (int, error) { return 1, nil }))

	b.Run("pool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			slot, err := p.Acquire(time.Second)
			if err != nil {
				b.Fatal(err)
			}
			if err := p.Release(slot, false); err != nil {
				b.Fatal(err)
			}
		}
	})
}
