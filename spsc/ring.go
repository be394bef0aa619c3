// Package spsc implements a lock-free single-producer/single-consumer
// channel. Sending to a full channel drops the oldest unread item instead of
// blocking; receiving from an empty channel returns immediately.
//
// A Sender outpacing its Receiver will see send degrade very slightly, since
// the ring's starvation guard occasionally gives the consumer an exclusive
// window to make progress. Neither side ever blocks for an unbounded time.
package spsc

import "sync/atomic"

// New creates a channel backed by a ring buffer of the given capacity. The
// capacity must be greater than zero.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity <= 0 {
		panic("spsc: capacity must be greater than zero")
	}
	rb := &ring[T]{
		buf:      make([]T, capacity),
		capacity: uint64(capacity),
	}
	return &Sender[T]{inner: rb}, &Receiver[T]{inner: rb}
}

// Sender is the producing half of a channel.
type Sender[T any] struct {
	inner *ring[T]
}

// Send pushes an item onto the channel. If the channel is full, the oldest
// item is dropped to make room.
func (s *Sender[T]) Send(item T) {
	s.inner.push(item)
}

// Capacity returns the channel's fixed capacity.
func (s *Sender[T]) Capacity() int {
	return int(s.inner.capacity)
}

// IsClosed reports whether the receiving half has been closed.
func (s *Sender[T]) IsClosed() bool {
	return s.inner.closed.Load()
}

// Receiver is the consuming half of a channel.
type Receiver[T any] struct {
	inner *ring[T]
}

// Recv returns the next item in the channel, or ok == false if it is empty.
func (r *Receiver[T]) Recv() (item T, ok bool) {
	return r.inner.pop()
}

// Capacity returns the channel's fixed capacity.
func (r *Receiver[T]) Capacity() int {
	return int(r.inner.capacity)
}

// Close marks the channel closed. A subsequent Sender.IsClosed call reports
// true. Close does not affect items already buffered; Recv still drains them.
func (r *Receiver[T]) Close() {
	r.inner.closed.Store(true)
}

// ring is the shared backing store. Fields are grouped and padded to keep
// the consumer's working set (head, shadowTail) and the producer's working
// set (tail, shadowHead, giveupLock) off each other's cache lines, mirroring
// the layout of the reference implementation's packed ring buffer.
type ring[T any] struct {
	buf      []T
	capacity uint64
	closed   atomic.Bool

	_pad0 [6]uint64

	head       atomic.Uint64
	shadowTail uint64 // touched only by the consumer

	_pad1 [6]uint64

	tail       atomic.Uint64
	shadowHead uint64 // touched only by the producer
	giveupLock atomic.Bool

	_pad2 [6]uint64
}

// pop removes and returns the oldest item, or ok == false if empty.
//
// The loop retries 1+capacity/2 times before falling back to the giveup
// lock. A CAS fails when the producer, finding the ring full, evicts the
// oldest item (advancing head) between this function's load and its CAS;
// the bound is exceeded only if that happens on every retry.
func (rb *ring[T]) pop() (item T, ok bool) {
	limit := 1 + rb.capacity/2
	for i := uint64(0); i < limit; i++ {
		head := rb.head.Load()

		if head >= rb.shadowTail {
			rb.shadowTail = rb.tail.Load()
			if head == rb.shadowTail {
				return item, false
			}
		}

		val := rb.buf[head%rb.capacity]

		if rb.head.CompareAndSwap(head, head+1) {
			var zero T
			rb.buf[head%rb.capacity] = zero // let the GC reclaim it
			return val, true
		}
	}

	// The producer is outpacing us badly enough that capacity/2 retries all
	// lost their CAS race. Take the lock so the producer waits for exactly
	// one pop to complete.
	rb.giveupLock.Store(true)
	item, ok = rb.pop()
	rb.giveupLock.Store(false)
	return item, ok
}

// push adds an item, evicting the oldest item first if the ring is full.
func (rb *ring[T]) push(item T) {
	tail := rb.tail.Load()

	if rb.shadowHead+rb.capacity <= tail {
		rb.shadowHead = rb.head.Load()

		if rb.shadowHead+rb.capacity <= tail {
			for rb.giveupLock.Load() {
				// Spin. The consumer holds this only long enough to pop one
				// item, so this never spins for long.
			}

			head := rb.shadowHead
			if rb.head.CompareAndSwap(head, head+1) {
				var zero T
				rb.buf[head%rb.capacity] = zero
				rb.shadowHead = head + 1
			} else {
				rb.shadowHead = rb.head.Load()
			}
		}
	}

	rb.buf[tail%rb.capacity] = item
	rb.tail.Store(tail + 1)
}
