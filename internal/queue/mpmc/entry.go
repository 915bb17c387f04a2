// Multi-producer multi-consumer lock-free ring buffer queue with power-of-two capacity
package mpmc

import (
	"context"
	"fmt"
	"logsink/internal/global"
	"runtime"
)

// Creates a new queue
func New[T any](namespace []string, capacity uint64) (queue *Queue[T], err error) {
	if capacity < 2 {
		err = fmt.Errorf("capacity must be greater than or equal to 2")
		return
	}
	if (capacity & (capacity - 1)) != 0 {
		err = fmt.Errorf("capacity must be a power of two")
		return
	}

	buf := make([]cell[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		buf[i].seq.Store(i)
	}

	queue = &Queue[T]{
		Namespace: append(append([]string(nil), namespace...), global.NSQueue),
		Size:      int(capacity),
		mask:      capacity - 1,
		buf:       buf,
		notEmpty:  make(chan struct{}, 1),
		Metrics:   &MetricStorage{},
	}
	return
}

// Attempts to write an element (non success = queue full)
func (queue *Queue[T]) Push(value T) (success bool) {
	var pos uint64
	var slot *cell[T]

	for {
		pos = queue.tail.Load()
		slot = &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()

		if seq == pos {
			if queue.tail.CompareAndSwap(pos, pos+1) {
				break
			}
		} else if seq < pos {
			queue.Metrics.Full.Add(1)
			return
		} else {
			runtime.Gosched() // another producer ahead, retry
		}
	}

	slot.data = value
	slot.seq.Store(pos + 1)
	queue.Metrics.Depth.Add(1)
	queue.Metrics.Pushed.Add(1)

	// notify blocked consumers, non-blocking
	select {
	case queue.notEmpty <- struct{}{}:
	default:
	}

	success = true
	return
}

// Writes an element, discarding the oldest elements until it fits. Never blocks.
func (queue *Queue[T]) PushEvict(value T) (evicted int) {
	evicted = queue.PushBounded(value, queue.Size, nil)
	return
}

// Writes an element after discarding the oldest ones until fewer than limit
// are buffered (limit <= 0 or above Size means Size). onEvict sees each
// discarded element before the new one is visible. The limit is exact only
// while a single producer pushes at a time.
func (queue *Queue[T]) PushBounded(value T, limit int, onEvict func(evicted T)) (evicted int) {
	if limit <= 0 || limit > queue.Size {
		limit = queue.Size
	}

	for {
		if queue.Len() < limit && queue.Push(value) {
			return
		}

		old, ok := queue.take()
		if ok {
			queue.Metrics.Evicted.Add(1)
			evicted++
			if onEvict != nil {
				onEvict(old)
			}
			continue
		}
		// Slot still being released by a consumer
		runtime.Gosched()
	}
}

// Number of claimed slots, including ones a producer is still filling
func (queue *Queue[T]) Len() (length int) {
	head := queue.head.Load()
	tail := queue.tail.Load()
	if tail > head {
		length = int(tail - head)
	}
	return
}

// Reads an element without waiting
func (queue *Queue[T]) TryPop() (out T, success bool) {
	out, success = queue.take()
	if success {
		queue.Metrics.Popped.Add(1)
	}
	return
}

// Reads an element, waiting until one is available or ctx is done.
// After cancellation, already buffered elements are still returned.
func (queue *Queue[T]) Pop(ctx context.Context) (out T, success bool) {
	for {
		out, success = queue.TryPop()
		if success {
			return
		}

		select {
		case <-queue.notEmpty:
		case <-ctx.Done():
			out, success = queue.TryPop()
			return
		}
	}
}

func (queue *Queue[T]) take() (out T, success bool) {
	for {
		pos := queue.head.Load()
		slot := &queue.buf[pos&queue.mask]
		seq := slot.seq.Load()
		readySeq := pos + 1

		if seq == readySeq {
			if queue.head.CompareAndSwap(pos, pos+1) {
				out = slot.data
				var zero T
				slot.data = zero
				slot.seq.Store(pos + queue.mask + 1)
				queue.Metrics.Depth.Add(-1)

				// More may remain, keep another waiter moving
				if queue.head.Load() != queue.tail.Load() {
					select {
					case queue.notEmpty <- struct{}{}:
					default:
					}
				}

				success = true
				return
			}
			continue
		}

		if seq < readySeq {
			return // empty
		}

		runtime.Gosched() // another consumer ahead, retry
	}
}

// Smallest power of two >= start (minimum 2)
func NextPowerOfTwo(start int) (next int) {
	next = 2
	for next < start {
		next <<= 1
	}
	return
}
