// Distributes decoded records to every sink, each through its own level filter
// and bounded buffer. Publishing never blocks: a full buffer loses its oldest
// record and the loss is reported with the next delivery.
package bus

import (
	"context"
	"fmt"
	"logsink/internal/global"
	"logsink/internal/queue/mpmc"
	"logsink/pkg/schema"

	"github.com/pbnjay/memory"
)

// Creates a new bus with no subscribers
func New(namespace []string) (bus *Bus) {
	bus = &Bus{
		Namespace: append(append([]string(nil), namespace...), global.NSBus),
		Metrics:   &MetricStorage{},
	}
	return
}

// Registers a sink buffering at most capacity records, lowered if needed so
// the buffer cannot claim more than a fixed share of free memory.
func (bus *Bus) Subscribe(name string, minLevel schema.Level, capacity int) (sub *Subscription, err error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed.Load() {
		err = fmt.Errorf("cannot subscribe %s: bus is closed", name)
		return
	}
	for _, existing := range bus.subscriptions {
		if existing.Name == name {
			err = fmt.Errorf("subscription %s already exists", name)
			return
		}
	}

	if capacity <= 0 {
		capacity = global.DefaultBufferSize
	}
	limit := int(clampToMemory(uint64(capacity), memory.FreeMemory()))

	queue, err := mpmc.New[entry](append(bus.Namespace, name), uint64(mpmc.NextPowerOfTwo(limit)))
	if err != nil {
		err = fmt.Errorf("failed to create buffer for %s: %w", name, err)
		return
	}

	closing, cancel := context.WithCancel(context.Background())
	sub = &Subscription{
		Name:     name,
		MinLevel: minLevel,
		limit:    limit,
		queue:    queue,
		closing:  closing,
		cancel:   cancel,
		Metrics:  &SubscriptionMetrics{},
	}
	bus.subscriptions = append(bus.subscriptions, sub)
	return
}

// Record count within the memory share, never below 2 unless size is.
// Zero free memory means the platform could not report it.
func clampToMemory(size uint64, freeBytes uint64) (clamped uint64) {
	clamped = size
	if freeBytes == 0 {
		return
	}

	limit := freeBytes * global.MaxBufferMemoryPct / 100 / global.ApproxRecordBytes
	if limit < 2 {
		limit = 2
	}
	if clamped > limit {
		clamped = limit
	}
	return
}

// Offers a record to every subscription whose level it meets. Safe for
// concurrent use by any number of receivers. No-op once closed.
func (bus *Bus) Publish(record schema.Record) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	if bus.closed.Load() {
		return
	}
	bus.Metrics.Published.Add(1)

	for _, sub := range bus.subscriptions {
		if record.Level < sub.MinLevel {
			sub.Metrics.Filtered.Add(1)
			continue
		}
		sub.Metrics.Accepted.Add(1)

		sub.offer(record)
	}
}

// Stops intake. Buffered records remain readable until each subscription drains.
func (bus *Bus) Close() {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if !bus.closed.CompareAndSwap(false, true) {
		return
	}
	for _, sub := range bus.subscriptions {
		sub.cancel()
	}
}

func (bus *Bus) Subscriptions() (list []*Subscription) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	list = append(list, bus.subscriptions...)
	return
}
