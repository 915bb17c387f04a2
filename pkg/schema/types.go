package schema

import (
	"time"

	"github.com/google/uuid"
)

// Numeric log severity. Values between named levels are valid.
type Level uint8

type namedLevel struct {
	level  Level
	full   string
	medium string // always 5 characters
	short  string // always 3 characters
}

// One log event as carried on the wire (one JSON object per line)
type Record struct {
	Level     Level
	Timestamp time.Time // UTC, microsecond precision
	Name      string    // Logger name (dot-separated), empty when absent
	ContextID string    // Operation identifier, empty when absent
	Origin    *OriginRef
	Message   string
}

type OriginKind uint8

const (
	OriginBackRef OriginKind = iota + 1 // ID refers to an origin declared earlier in the stream
	OriginInline                        // Origin holds the full description
)

// Either a back-reference to an earlier origin or a fully inlined origin
type OriginRef struct {
	Kind   OriginKind
	ID     uuid.UUID
	Origin Origin
}

// Host and process that produced a record. Zero values mean absent.
type Origin struct {
	OriginID    uuid.UUID
	Hostname    string
	ProcessName string
	ProcessID   *uint32
	ThreadName  string
	ThreadID    *uint32
}
