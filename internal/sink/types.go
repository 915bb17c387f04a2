package sink

import (
	"bufio"
	"context"
	"io"
	"logsink/internal/bus"
	"net/http"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	lumberjack "github.com/elastic/go-lumber/client/v2"
)

// Consumer of bus deliveries
type Sink interface {
	Write(ctx context.Context, delivery bus.Delivery) (err error)
	Close() (err error)
}

// Sinks that buffer output and can push it out when the bus is idle
type Flusher interface {
	Flush() (err error)
}

// Human readable lines to a terminal or any writer
type Console struct {
	Namespace  []string
	out        io.Writer
	levelWidth int
	mu         sync.Mutex
}

// Append-only log file, text or NDJSON, optionally zstd compressed
type File struct {
	Namespace  []string
	Path       string
	Format     string
	file       *os.File
	compressor *zstd.Encoder // nil unless the path ends in .zst
	writer     *bufio.Writer
	mu         sync.Mutex
}

// Forwards records to a Logstash/Beats compatible endpoint
type Beats struct {
	Namespace []string
	Endpoint  string
	client    *lumberjack.SyncClient
	mu        sync.Mutex
}

// Forwards records to systemd-journal-remote
type Journal struct {
	Namespace []string
	url       string
	bootID    string
	client    *http.Client
}
