package logctx

import (
	"sync"
	"time"
)

// Diagnostic event about the daemon itself (not a received record)
type Event struct {
	Timestamp time.Time
	Severity  string
	Tags      []string
	Message   string
}

type Logger struct {
	ID         string
	CreatedAt  time.Time
	queue      []Event    // event buffer
	mutex      sync.Mutex // protects buffer and PrintLevel
	cond       *sync.Cond // signals new events
	Done       <-chan struct{}
	PrintLevel int             // Highest verbosity that is recorded
	wg         *sync.WaitGroup // Holds exit until watchers have written everything
}

// Repeated message suppression state for one watcher
type dedupState struct {
	lastMsg          string
	repeatCount      int
	lastSuppressTime time.Time
}
