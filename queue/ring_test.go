package queue_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/torque-tracker/torque/queue"
)

func TestRingCapacity(t *testing.T) {
	r := queue.New[int](3)
	for i := 0; i < 3; i++ {
		if err := r.TryPush(i); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
	}
	if err := r.TryPush(3); !errors.Is(err, queue.ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	if r.Len() != 3 || r.Free() != 0 || r.Cap() != 3 {
		t.Fatalf("got len %d free %d cap %d", r.Len(), r.Free(), r.Cap())
	}
	for i := 0; i < 3; i++ {
		v, ok := r.TryPop()
		if !ok || v != i {
			t.Fatalf("pop %d: got %v %v", i, v, ok)
		}
	}
	if _, ok := r.TryPop(); ok {
		t.Fatalf("pop from empty ring succeeded")
	}
}

func TestRingWrapAround(t *testing.T) {
	r := queue.New[int](4)
	next := 0
	for i := 0; i < 100; i++ {
		if err := r.TryPush(i); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
		if i%3 == 2 {
			for {
				v, ok := r.TryPop()
				if !ok {
					break
				}
				if v != next {
					t.Fatalf("got %d, expected %d", v, next)
				}
				next++
			}
		}
	}
}

// TryPop must keep returning without blocking while another goroutine pushes,
// and must observe every pushed item exactly once in order.
func TestRingConcurrentPushPop(t *testing.T) {
	const n = 100000
	r := queue.New[int](256)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if r.TryPush(i) == nil {
				i++
			}
		}
	}()
	empty := 0
	for next := 0; next < n; {
		v, ok := r.TryPop()
		if !ok {
			empty++
			continue
		}
		if v != next {
			t.Fatalf("got %d, expected %d", v, next)
		}
		next++
	}
	wg.Wait()
	if _, ok := r.TryPop(); ok {
		t.Fatalf("ring not empty after draining")
	}
	t.Logf("%d empty polls", empty)
}
