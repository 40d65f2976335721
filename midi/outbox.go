package midi

import (
	"sync"
	"sync/atomic"

	"cellseq/debug"
)

// DefaultOutboxSize holds a few ticks worth of note traffic
const DefaultOutboxSize = 256

// Outbox is the bounded queue between the sequencer and the output thread.
// Send never blocks: when the queue is full the oldest packet is dropped.
type Outbox struct {
	ch      chan Packet
	dropped atomic.Uint64

	mu     sync.Mutex // serialises senders and Close
	closed bool
}

func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = DefaultOutboxSize
	}
	return &Outbox{ch: make(chan Packet, size)}
}

// C is read by the output pump
func (o *Outbox) C() <-chan Packet {
	return o.ch
}

func (o *Outbox) Len() int {
	return len(o.ch)
}

func (o *Outbox) Cap() int {
	return cap(o.ch)
}

// Dropped counts packets discarded because the queue was full or closed
func (o *Outbox) Dropped() uint64 {
	return o.dropped.Load()
}

// Send enqueues p, evicting the oldest packet if needed. Returns false when
// p itself was discarded.
func (o *Outbox) Send(p Packet) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		o.dropped.Add(1)
		debug.LogEvery(100, "outbox", "send after close dropped %v", p)
		return false
	}

	for range 2 {
		select {
		case o.ch <- p:
			return true
		default:
		}
		select {
		case old := <-o.ch:
			o.dropped.Add(1)
			debug.LogEvery(100, "outbox", "full, dropped oldest %v", old)
		default:
		}
	}
	o.dropped.Add(1)
	return false
}

// Close ends the stream; the pump drains what is left and returns
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.ch)
}
