package security

import (
	"sync"

	audit "onboard/pkg/platform/audit"
)

// ringBuffer holds security events between flushes. It is bounded; when full,
// the oldest event is overwritten so an audit store outage can never make a
// login or step rejection block.
type ringBuffer struct {
	mu      sync.Mutex
	slots   []audit.SecurityEvent
	write   int
	read    int
	count   int
	dropped int64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 10000
	}
	return &ringBuffer{slots: make([]audit.SecurityEvent, capacity)}
}

// Enqueue stores an event, overwriting the oldest one when the buffer is full.
func (b *ringBuffer) Enqueue(event audit.SecurityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == len(b.slots) {
		b.read = (b.read + 1) % len(b.slots)
		b.count--
		b.dropped++
	}
	b.slots[b.write] = event
	b.write = (b.write + 1) % len(b.slots)
	b.count++
}

// DequeueBatch removes and returns up to n of the oldest buffered events.
func (b *ringBuffer) DequeueBatch(n int) []audit.SecurityEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	batch := make([]audit.SecurityEvent, n)
	for i := range batch {
		batch[i] = b.slots[b.read]
		b.read = (b.read + 1) % len(b.slots)
	}
	b.count -= n
	return batch
}

// Len reports how many events are waiting for the next flush.
func (b *ringBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped reports how many events were overwritten before they could flush.
func (b *ringBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
