package bus

import (
	"context"
	"logsink/internal/queue/mpmc"
	"logsink/pkg/schema"
	"sync"
	"sync/atomic"
)

// Fan-out point between receivers and sinks
type Bus struct {
	Namespace     []string
	mu            sync.RWMutex // Publish holds read side, Subscribe/Close write side
	subscriptions []*Subscription
	closed        atomic.Bool
	Metrics       *MetricStorage
}

type MetricStorage struct {
	Published atomic.Uint64 // records offered to the bus
}

// One sink's view of the bus
type Subscription struct {
	Name      string
	MinLevel  schema.Level
	limit     int // records buffered at most
	queue     *mpmc.Queue[entry]
	pushMu    sync.Mutex         // one producer at a time keeps limit and sequence exact
	nextSeq   uint64             // guarded by pushMu
	delivered atomic.Uint64      // sequence of the last delivered record
	closing   context.Context    // done once the bus stops intake
	cancel    context.CancelFunc // ends closing
	Metrics   *SubscriptionMetrics
}

// Buffered record with its per-subscription sequence, gaps mark evictions
type entry struct {
	seq    uint64
	record schema.Record
}

type SubscriptionMetrics struct {
	Accepted  atomic.Uint64 // passed the level filter
	Filtered  atomic.Uint64 // below MinLevel
	Dropped   atomic.Uint64 // evicted before the sink read them
	Delivered atomic.Uint64
}

// A record handed to a sink. Dropped counts records lost immediately before it.
type Delivery struct {
	Record  schema.Record
	Dropped uint64
}
