package relay

import (
	"errors"
	"testing"
	"time"
)

func TestQueueDropOldest(t *testing.T) {
	q := newQueue(2)
	a, b, c := []byte("a"), []byte("b"), []byte("c")
	if n := q.pushDropOldest(a); n != 0 {
		t.Fatalf("push a evicted %d", n)
	}
	if n := q.pushDropOldest(b); n != 0 {
		t.Fatalf("push b evicted %d", n)
	}
	if n := q.pushDropOldest(c); n != 1 {
		t.Fatalf("push c evicted %d", n)
	}
	// The oldest frame is gone, the two newest remain in order.
	fr, ok := q.pop()
	if !ok || string(fr) != "b" {
		t.Fatalf("pop = %q ok=%v", fr, ok)
	}
	fr, ok = q.pop()
	if !ok || string(fr) != "c" {
		t.Fatalf("pop = %q ok=%v", fr, ok)
	}
	if q.dropped.Load() != 1 {
		t.Fatalf("dropped = %d", q.dropped.Load())
	}
}

func TestQueuePushWaitTimeout(t *testing.T) {
	q := newQueue(1)
	if err := q.pushWait([]byte("a"), 10*time.Millisecond); err != nil {
		t.Fatalf("push a: %v", err)
	}
	start := time.Now()
	err := q.pushWait([]byte("b"), 30*time.Millisecond)
	if !errors.Is(err, errQueueTimeout) {
		t.Fatalf("full push: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("timeout returned early")
	}

	// A draining consumer unblocks the producer within the wait.
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.pop()
	}()
	if err := q.pushWait([]byte("c"), time.Second); err != nil {
		t.Fatalf("push after drain: %v", err)
	}
}

func TestQueueBlockIndefinite(t *testing.T) {
	q := newQueue(1)
	if err := q.pushWait([]byte("a"), 0); err != nil {
		t.Fatalf("push a: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- q.pushWait([]byte("b"), 0) }()
	select {
	case err := <-done:
		t.Fatalf("blocked push returned: %v", err)
	case <-time.After(30 * time.Millisecond):
	}
	q.pop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("push after drain: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("push did not unblock")
	}
}

func TestQueueCloseDrains(t *testing.T) {
	q := newQueue(4)
	q.pushDropOldest([]byte("a"))
	q.pushDropOldest([]byte("b"))
	q.close()

	// Frames enqueued before close still pop.
	if fr, ok := q.pop(); !ok || string(fr) != "a" {
		t.Fatalf("pop = %q ok=%v", fr, ok)
	}
	if fr, ok := q.pop(); !ok || string(fr) != "b" {
		t.Fatalf("pop = %q ok=%v", fr, ok)
	}
	if _, ok := q.pop(); ok {
		t.Fatalf("pop after drain")
	}

	// Pushes after close are refused.
	if n := q.pushDropOldest([]byte("c")); n != 0 {
		t.Fatalf("push after close evicted %d", n)
	}
	if _, ok := q.pop(); ok {
		t.Fatalf("closed queue accepted a frame")
	}
	if err := q.pushWait([]byte("c"), 0); !errors.Is(err, errQueueClosed) {
		t.Fatalf("pushWait after close: %v", err)
	}
}
