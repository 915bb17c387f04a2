// Helpers for waiting on atomic counters
package atomics

import (
	"sync/atomic"
	"time"
)

// Counter is satisfied by the signed atomic gauges used for buffer depth
type Counter interface {
	Load() int64
}

// Waits until the counter reads 0 three consecutive times in a row, with backoff and timeout
func WaitUntilZero(value Counter, timeout time.Duration) (reachedZero bool, lastValue int64) {
	const successfulStreakCount = 3

	// Initial backoff duration
	backoff := 10 * time.Millisecond

	// Max backoff duration
	maxBackoff := 500 * time.Millisecond

	deadline := time.Now().Add(timeout)
	zeroStreak := 0

	for {
		lastValue = value.Load()

		if lastValue <= 0 {
			zeroStreak++
			if zeroStreak >= successfulStreakCount {
				reachedZero = true
				return
			}
		} else {
			// Reset streak if value is non-zero
			zeroStreak = 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}

		sleep := backoff
		if zeroStreak > 0 {
			// Confirming an observed zero needs no long pause
			sleep = time.Millisecond
		}
		if sleep > remaining {
			sleep = remaining
		}
		time.Sleep(sleep)

		// Exponential backoff with cap
		if backoff < maxBackoff {
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

var _ Counter = (*atomic.Int64)(nil)
