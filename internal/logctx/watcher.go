package logctx

import (
	"fmt"
	"io"
	"logsink/internal/global"
	"time"
)

const (
	dedupWindow      = 5 * time.Second
	minRepeats       = 10
	suppressCooldown = 1 * time.Minute
)

// Hold exit until the watchers have written every queued event
func (logger *Logger) Wait() {
	logger.wg.Wait()
}

// Wakes watchers blocked on an empty queue (used after closing Done)
func (logger *Logger) Wake() {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.cond.Broadcast()
}

// Starts a goroutine writing formatted events to output until Done is closed
// and the queue is empty. Bursts of an identical message are collapsed.
func StartWatcher(logger *Logger, output io.Writer) {
	logger.wg.Add(1)

	go func() {
		defer logger.wg.Done()

		var dedup dedupState
		for {
			event, ok := logger.next()
			if !ok {
				return
			}

			if dedup.suppress(event, time.Now(), output) {
				continue
			}
			fmt.Fprint(output, event.Format())
		}
	}()
}

// Reports whether the event repeats the previous one closely enough to be dropped
func (dedup *dedupState) suppress(event Event, now time.Time, output io.Writer) (drop bool) {
	if event.Message == "" || event.Message != dedup.lastMsg || now.Sub(event.Timestamp) > dedupWindow {
		dedup.lastMsg = event.Message
		dedup.repeatCount = 1
		return
	}

	dedup.repeatCount++
	if dedup.repeatCount >= minRepeats && now.Sub(dedup.lastSuppressTime) >= suppressCooldown {
		summary := Event{
			Timestamp: event.Timestamp,
			Tags:      event.Tags,
			Severity:  global.InfoLog,
			Message:   fmt.Sprintf("Suppressed %d repeated messages: %s", dedup.repeatCount, dedup.lastMsg),
		}
		fmt.Fprint(output, summary.Format())

		dedup.lastSuppressTime = now
		dedup.repeatCount = 0
	}
	drop = true
	return
}
