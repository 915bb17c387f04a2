package bus

import (
	"context"
	"logsink/internal/queue/mpmc"
	"logsink/pkg/schema"
	"sync/atomic"
)

// Buffers a record, evicting the oldest ones past the limit
func (sub *Subscription) offer(record schema.Record) {
	sub.pushMu.Lock()
	defer sub.pushMu.Unlock()

	sub.nextSeq++
	evicted := sub.queue.PushBounded(entry{seq: sub.nextSeq, record: record}, sub.limit, nil)
	if evicted > 0 {
		sub.Metrics.Dropped.Add(uint64(evicted))
	}
}

// Waits for the next record. Returns false once the bus is closed and the
// buffer is drained, or when ctx is done and nothing is buffered.
func (sub *Subscription) Next(ctx context.Context) (delivery Delivery, ok bool) {
	next, ok := sub.queue.TryPop()
	if !ok {
		waitCtx, cancel := context.WithCancel(ctx)
		stop := context.AfterFunc(sub.closing, cancel)
		next, ok = sub.queue.Pop(waitCtx)
		stop()
		cancel()
	}
	if !ok {
		return
	}

	delivery = Delivery{Record: next.record}
	previous := sub.delivered.Swap(next.seq)
	if next.seq > previous+1 {
		delivery.Dropped = next.seq - previous - 1
	}
	sub.Metrics.Delivered.Add(1)
	return
}

// Records buffered at most, after the memory limit
func (sub *Subscription) Capacity() (capacity int) {
	capacity = sub.limit
	return
}

func (sub *Subscription) Buffer() (snapshot mpmc.Snapshot) {
	snapshot = sub.queue.Snapshot()
	return
}

// Live count of buffered records
func (sub *Subscription) Depth() (depth *atomic.Int64) {
	depth = &sub.queue.Metrics.Depth
	return
}
