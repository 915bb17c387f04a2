package logctx

import (
	"logsink/internal/global"
	"time"
)

func (logger *Logger) log(eventLevel int, eventSeverity string, tags []string, fullMessage string) {
	event := Event{
		Timestamp: time.Now(),
		Tags:      tags,
		Severity:  eventSeverity,
		Message:   fullMessage,
	}

	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	// Errors are always recorded
	if eventLevel > logger.PrintLevel && eventSeverity != global.ErrorLog {
		return
	}

	logger.queue = append(logger.queue, event)
	logger.cond.Signal()
}

// Pops the oldest event, blocking until one exists or Done is closed with nothing left
func (logger *Logger) next() (event Event, ok bool) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	for len(logger.queue) == 0 {
		select {
		case <-logger.Done:
			return
		default:
		}
		logger.cond.Wait()
	}

	event = logger.queue[0]
	logger.queue = logger.queue[1:]
	ok = true
	return
}
