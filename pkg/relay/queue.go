package relay

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// BackpressureKind governs producer behavior when a subscriber queue is
// full. Bound per domain at construction.
type BackpressureKind uint8

const (
	// DropOldest evicts the oldest queued frame in favor of the newest.
	// A late quote is worthless: the market data setting.
	DropOldest BackpressureKind = iota
	// BlockWait blocks the producer up to the configured wait; a
	// subscriber that stays full past the wait is evicted. The signal
	// setting.
	BlockWait
	// Block blocks the producer until space exists. Nothing is ever
	// dropped: the execution setting.
	Block
)

func (b BackpressureKind) String() string {
	switch b {
	case DropOldest:
		return "drop_oldest"
	case BlockWait:
		return "block_wait"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// ParseBackpressure maps a config string to a BackpressureKind.
func ParseBackpressure(s string) (BackpressureKind, error) {
	switch s {
	case "drop_oldest":
		return DropOldest, nil
	case "block_wait":
		return BlockWait, nil
	case "block":
		return Block, nil
	default:
		return 0, errors.New("unknown backpressure kind " + s)
	}
}

var errQueueClosed = errors.New("subscriber queue closed")
var errQueueTimeout = errors.New("subscriber queue full past wait")

// queue is one subscriber's bounded delivery buffer. Pushes come from any
// connection goroutine; pops from the subscriber's writer goroutine only.
type queue struct {
	ch      chan []byte
	done    chan struct{}
	pushMu  sync.Mutex // serializes drop-oldest eviction
	closed  sync.Once
	dropped atomic.Uint64
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 256
	}
	return &queue{ch: make(chan []byte, capacity), done: make(chan struct{})}
}

// pushDropOldest enqueues fr, evicting the head if the queue is full.
// Returns the number of frames evicted (0 or 1, rarely 2 under race with a
// concurrent pusher).
func (q *queue) pushDropOldest(fr []byte) int {
	q.pushMu.Lock()
	defer q.pushMu.Unlock()
	select {
	case <-q.done:
		return 0
	default:
	}
	select {
	case q.ch <- fr:
		return 0
	default:
	}
	evicted := 0
	select {
	case <-q.ch:
		evicted++
	default:
	}
	select {
	case q.ch <- fr:
	default:
		// Consumer raced us back to full; the new frame is the loser.
		evicted++
	}
	q.dropped.Add(uint64(evicted))
	return evicted
}

// pushWait enqueues fr, blocking until space exists. With wait > 0 the
// block is bounded and errQueueTimeout reports expiry; with wait <= 0 the
// producer blocks until space or queue close.
func (q *queue) pushWait(fr []byte, wait time.Duration) error {
	select {
	case <-q.done:
		return errQueueClosed
	default:
	}
	if wait <= 0 {
		select {
		case q.ch <- fr:
			return nil
		case <-q.done:
			return errQueueClosed
		}
	}
	select {
	case q.ch <- fr:
		return nil
	default:
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case q.ch <- fr:
		return nil
	case <-q.done:
		return errQueueClosed
	case <-t.C:
		return errQueueTimeout
	}
}

// pop blocks for the next frame. ok is false once the queue is closed and
// drained.
func (q *queue) pop() (fr []byte, ok bool) {
	select {
	case fr = <-q.ch:
		return fr, true
	case <-q.done:
		// Drain what was enqueued before close.
		select {
		case fr = <-q.ch:
			return fr, true
		default:
			return nil, false
		}
	}
}

func (q *queue) close() {
	q.closed.Do(func() { close(q.done) })
}

func (q *queue) len() int { return len(q.ch) }
