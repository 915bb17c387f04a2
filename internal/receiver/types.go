package receiver

import (
	"bufio"
	"io"
	"logsink/internal/workdir"
	"sync"
	"sync/atomic"
)

// Wire protocol spoken on a receiver
type Protocol string

const (
	NDJSON Protocol = "ndjson"
)

type State uint32

const (
	Configured State = iota // declared, no OS resource attached
	Open                    // handle attached to a decoder
	Closed                  // terminal, handle released
)

// One protocol-tagged input channel
type Receiver struct {
	Namespace   []string
	Protocol    Protocol
	Path        string // backing pipe file, empty for stdin
	source      io.ReadCloser
	provisioned bool // backing file exists and belongs to this suite
	state       atomic.Uint32
	released    atomic.Bool // flips once before any close/unlink work
	mu          sync.Mutex  // serializes open against release
	Metrics     *MetricStorage
}

type MetricStorage struct {
	LinesRead atomic.Uint64 // lines taken off the channel (blank lines excluded)
	Decoded   atomic.Uint64 // records published
	Malformed atomic.Uint64
	TooLong   atomic.Uint64
}

// Every configured receiver plus the directory their files live in
type Suite struct {
	Namespace     []string
	Dir           *workdir.Dir
	Stdin         io.ReadCloser // source for the stdin receiver
	MaxLineLength int
	receivers     []*Receiver
	mu            sync.Mutex
	finished      atomic.Bool // cleanup or detach already ran
	adopting      atomic.Bool // files still belong to the process that handed them over
}

// How a client attaches to the running suite. Printed once as JSON.
type ConnectionInfo struct {
	LogFifo *string `json:"log_fifo"`
}

// Ownership transfer message from a parent to the process that keeps receiving
type Handoff struct {
	Dir           string            `json:"dir"`
	DirKind       workdir.Kind      `json:"dir_kind"`
	MaxLineLength int               `json:"max_line_length,omitempty"`
	Receivers     []HandoffReceiver `json:"receivers"`
}

type HandoffReceiver struct {
	Protocol Protocol `json:"protocol"`
	Path     string   `json:"path,omitempty"` // empty for stdin
}

// Splits a byte stream into lines and decodes each one
type LineDecoder struct {
	reader     *bufio.Reader
	maxLength  int
	line       []byte
	lineNumber uint64
	err        error // sticky end-of-stream or channel error
}
