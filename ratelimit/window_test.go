package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	t.Parallel()

	t.Run("implements dossier.RateLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ dossier.RateLimiter = ratelimit.NewWindow(1)
	})

	t.Run("clamps limit to the provider ceiling", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, dossier.MaxRequestsPerSecond, ratelimit.NewWindow(50).Limit())
		assert.Equal(t, 1, ratelimit.NewWindow(0).Limit())
		assert.Equal(t, 3, ratelimit.NewWindow(3).Limit())
	})

	t.Run("admits a full window immediately", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewWindow(5)

		start := time.Now()
		for range 5 {
			require.NoError(t, limiter.Wait(context.Background()))
		}

		assert.Less(t, time.Since(start), 50*time.Millisecond, "requests under the limit should not wait")
	})

	t.Run("blocks until the oldest request ages out", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewWindow(2, ratelimit.WithWindow(100*time.Millisecond))

		require.NoError(t, limiter.Wait(context.Background()))
		require.NoError(t, limiter.Wait(context.Background()))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background()))

		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond, "third request should wait for the window")
	})

	t.Run("never exceeds the ceiling under misconfiguration", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewWindow(1000, ratelimit.WithWindow(100*time.Millisecond))

		start := time.Now()
		for range dossier.MaxRequestsPerSecond + 1 {
			require.NoError(t, limiter.Wait(context.Background()))
		}

		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("pacing spreads requests across the window", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewWindow(10, ratelimit.WithPacing())

		require.NoError(t, limiter.Wait(context.Background()))

		start := time.Now()
		require.NoError(t, limiter.Wait(context.Background()))

		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond, "10 rps paced is 100ms apart")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewWindow(1)
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("concurrent waiters are all admitted", func(t *testing.T) {
		t.Parallel()

		limiter := ratelimit.NewWindow(10, ratelimit.WithWindow(20*time.Millisecond))

		var wg sync.WaitGroup
		var completed atomic.Int32
		for range 25 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background()); err == nil {
					completed.Add(1)
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, int32(25), completed.Load())
	})
}
