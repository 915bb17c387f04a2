package mpmc

import "sync/atomic"

type MetricStorage struct {
	Depth   atomic.Int64  // Current items in queue
	Pushed  atomic.Uint64 // Successful pushes
	Popped  atomic.Uint64 // Successful pops by consumers
	Evicted atomic.Uint64 // Oldest items discarded to make room
	Full    atomic.Uint64 // Push attempts that found the queue full
}

// Point-in-time copy of the counters
type Snapshot struct {
	Depth   int64
	Pushed  uint64
	Popped  uint64
	Evicted uint64
	Full    uint64
}

func (queue *Queue[T]) Snapshot() (snap Snapshot) {
	snap = Snapshot{
		Depth:   queue.Metrics.Depth.Load(),
		Pushed:  queue.Metrics.Pushed.Load(),
		Popped:  queue.Metrics.Popped.Load(),
		Evicted: queue.Metrics.Evicted.Load(),
		Full:    queue.Metrics.Full.Load(),
	}
	return
}
