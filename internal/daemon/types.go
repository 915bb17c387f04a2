package daemon

import (
	"context"
	"io"
	"logsink/internal/bus"
	"logsink/internal/receiver"
	"logsink/internal/sink"
	"logsink/pkg/schema"
	"sync"
)

// Resolved settings for one daemon run
type Config struct {
	ConsoleEnabled bool
	ConsoleLevel   schema.Level
	ConsoleWidth   int       // 0 picks from the terminal
	ConsoleOutput  io.Writer // defaults to stderr

	FilePath   string
	FileFormat string
	FileLevel  schema.Level

	BeatsEndpoint string
	BeatsLevel    schema.Level

	JournalURL   string
	JournalLevel schema.Level

	BufferSize int // per-sink buffer capacity
}

// Receivers -> bus -> sinks
type Daemon struct {
	cfg         Config
	ctx         context.Context
	cancel      context.CancelFunc // ends sink workers
	pumpCancel  context.CancelFunc // abandons receivers that did not end on close
	Suite       *receiver.Suite
	Bus         *bus.Bus
	sinks       []*sinkWorker
	wg          sync.WaitGroup // sink workers
	pumpsDone   chan struct{}  // closed once every receiver ended
	stopped     chan struct{}  // closed when shutdown completed
	stopOnce    sync.Once
	shutdownErr error
}

type sinkWorker struct {
	name string
	out  sink.Sink
	sub  *bus.Subscription
}
