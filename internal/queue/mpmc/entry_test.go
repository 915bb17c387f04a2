package mpmc

import (
	"context"
	"logsink/internal/global"
	"sync"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		capacity  uint64
		expectErr bool
	}{
		{name: "power of two", capacity: 8},
		{name: "minimum", capacity: 2},
		{name: "too small", capacity: 1, expectErr: true},
		{name: "zero", capacity: 0, expectErr: true},
		{name: "not power of two", capacity: 6, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue, err := New[int]([]string{global.NSTest}, tt.capacity)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if queue.Size != int(tt.capacity) {
				t.Fatalf("expected size %d, got %d", tt.capacity, queue.Size)
			}
		})
	}
}

func TestPushPopOrder(t *testing.T) {
	queue, err := New[int](nil, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 4; i++ {
		if !queue.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if queue.Push(99) {
		t.Fatal("push into full queue succeeded")
	}

	for i := 0; i < 4; i++ {
		got, ok := queue.TryPop()
		if !ok || got != i {
			t.Fatalf("expected %d, got %d (ok=%v)", i, got, ok)
		}
	}
	if _, ok := queue.TryPop(); ok {
		t.Fatal("pop from empty queue succeeded")
	}

	snap := queue.Snapshot()
	if snap.Depth != 0 || snap.Pushed != 4 || snap.Popped != 4 || snap.Full != 1 {
		t.Fatalf("unexpected metrics %+v", snap)
	}
}

func TestPushEvictKeepsNewest(t *testing.T) {
	const capacity = 8
	const extra = 5

	queue, err := New[int](nil, capacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evictedTotal := 0
	for i := 0; i < capacity+extra; i++ {
		evictedTotal += queue.PushEvict(i)
	}
	if evictedTotal != extra {
		t.Fatalf("expected %d evictions, got %d", extra, evictedTotal)
	}

	for want := extra; want < capacity+extra; want++ {
		got, ok := queue.TryPop()
		if !ok || got != want {
			t.Fatalf("expected %d, got %d (ok=%v)", want, got, ok)
		}
	}
	if queue.Snapshot().Evicted != extra {
		t.Fatalf("evicted metric mismatch: %+v", queue.Snapshot())
	}
}

func TestPushBoundedHonoursLimit(t *testing.T) {
	tests := []struct {
		name     string
		capacity uint64
		limit    int
		pushes   int
		expected []int
	}{
		{name: "below limit", capacity: 4, limit: 3, pushes: 2, expected: []int{0, 1}},
		{name: "limit smaller than ring", capacity: 4, limit: 3, pushes: 5, expected: []int{2, 3, 4}},
		{name: "limit of one", capacity: 2, limit: 1, pushes: 4, expected: []int{3}},
		{name: "zero limit means size", capacity: 4, limit: 0, pushes: 6, expected: []int{2, 3, 4, 5}},
		{name: "limit above size", capacity: 2, limit: 9, pushes: 3, expected: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue, err := New[int](nil, tt.capacity)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var seen []int
			for i := 0; i < tt.pushes; i++ {
				queue.PushBounded(i, tt.limit, func(evicted int) {
					seen = append(seen, evicted)
				})
			}

			var got []int
			for {
				value, ok := queue.TryPop()
				if !ok {
					break
				}
				got = append(got, value)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("expected %v, got %v", tt.expected, got)
				}
			}
			if len(seen) != tt.pushes-len(tt.expected) {
				t.Fatalf("expected %d evictions reported, got %v", tt.pushes-len(tt.expected), seen)
			}
			for i, value := range seen {
				if value != i {
					t.Fatalf("evictions out of order: %v", seen)
				}
			}
		})
	}
}

func TestPopWaitsAndCancels(t *testing.T) {
	queue, err := New[string](nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		queue.Push("late")
	}()

	got, ok := queue.Pop(context.Background())
	if !ok || got != "late" {
		t.Fatalf("expected late value, got %q (ok=%v)", got, ok)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := queue.Pop(ctx); ok {
		t.Fatal("expected pop on empty queue to stop at cancellation")
	}
}

func TestConcurrentProducersPreserveOrder(t *testing.T) {
	const producers = 4
	const perProducer = 2000

	queue, err := New[[2]int](nil, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				for !queue.Push([2]int{p, i}) {
					time.Sleep(time.Microsecond)
				}
			}
		}(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for received := 0; received < producers*perProducer; received++ {
		item, ok := queue.Pop(ctx)
		if !ok {
			t.Fatalf("timed out after %d items", received)
		}
		if item[1] != last[item[0]]+1 {
			t.Fatalf("producer %d out of order: got %d after %d", item[0], item[1], last[item[0]])
		}
		last[item[0]] = item[1]
	}
	wg.Wait()
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := map[int]int{0: 2, 1: 2, 2: 2, 3: 4, 8: 8, 9: 16, 500: 512, 512: 512}
	for in, want := range tests {
		if got := NextPowerOfTwo(in); got != want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}
