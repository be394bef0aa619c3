package provider

import (
	"errors"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/lcmproject/lcmgo/errs"
	"github.com/sirupsen/logrus"
)

// subscribeMsg registers one channel-matching regular expression and the
// trampoline that turns a decoded message's raw payload into a call on the
// SPSC ring feeding the user's callback. It is handed from the user
// goroutine to the receive goroutine through subQueue, which, like the
// reference implementation's mpsc-based subscribe handoff, never refuses or
// blocks a registration.
type subscribeMsg struct {
	id         uint32
	re         *regexp.Regexp
	trampoline func(payload []byte) error
}

// subQueue hands subscription changes from the caller's goroutine to the
// receive goroutine, which drains it at the top of each loop iteration. A
// mutex-guarded slice rather than a Go channel so registration never
// blocks, however many changes pile up between datagrams — the reference
// implementation's subscribe channel is unbounded and always accepts.
type subQueue struct {
	mu      sync.Mutex
	adds    []subscribeMsg
	removes []uint32
}

func (q *subQueue) add(s subscribeMsg) {
	q.mu.Lock()
	q.adds = append(q.adds, s)
	q.mu.Unlock()
}

func (q *subQueue) remove(id uint32) {
	q.mu.Lock()
	q.removes = append(q.removes, id)
	q.mu.Unlock()
}

// drain empties the queue. Adds are returned before removes so an
// unsubscribe queued after its own subscribe never resurrects it.
func (q *subQueue) drain() (adds []subscribeMsg, removes []uint32) {
	q.mu.Lock()
	adds, q.adds = q.adds, nil
	removes, q.removes = q.removes, nil
	q.mu.Unlock()
	return adds, removes
}

// DispatchStats reports cumulative dispatch counters. Safe to read
// concurrently with the receive loop; every field is updated with atomics.
type DispatchStats struct {
	Matched      uint64
	Decoded      uint64
	Dropped      uint64
	HashMismatch uint64
}

// dispatcher owns the receive-side subscription list and forwards decoded
// datagrams to every matching trampoline, pruning any whose SPSC channel has
// been closed (the signal that the user unsubscribed).
type dispatcher struct {
	subs []subscribeMsg
	log  *logrus.Entry

	matched      atomic.Uint64
	decoded      atomic.Uint64
	dropped      atomic.Uint64
	hashMismatch atomic.Uint64
}

func newDispatcher() *dispatcher {
	return &dispatcher{}
}

// addPending appends newly registered subscriptions to the live list.
// Called once per receive-loop iteration before processing a datagram.
func (d *dispatcher) addPending(newSubs []subscribeMsg) {
	d.subs = append(d.subs, newSubs...)
}

// removeSubscription drops a subscription by id, used when the backend is
// told directly (rather than discovering it via a closed channel).
func (d *dispatcher) removeSubscription(id uint32) {
	kept := d.subs[:0]
	for _, s := range d.subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	d.subs = kept
}

// forward runs message through every subscription whose regex matches
// channel, pruning subscriptions whose trampoline reports a closed channel.
// It returns true if at least one subscription accepted the message.
func (d *dispatcher) forward(channel string, message []byte) bool {
	forwarded := false
	kept := d.subs[:0]

	for _, s := range d.subs {
		if !s.re.MatchString(channel) {
			kept = append(kept, s)
			continue
		}

		d.matched.Add(1)
		err := s.trampoline(message)
		switch {
		case err == nil:
			d.decoded.Add(1)
			forwarded = true
			kept = append(kept, s)
		case errors.Is(err, errs.ErrMessageChannelClosed):
			// Subscription's receiver was dropped; don't keep it.
		default:
			var hashErr *errs.HashMismatchError
			if errors.As(err, &hashErr) {
				d.hashMismatch.Add(1)
			}
			d.dropped.Add(1)
			if d.log != nil {
				d.log.WithError(err).WithField("channel", channel).Warn("failed to decode message, dropping")
			}
			kept = append(kept, s)
		}
	}

	d.subs = kept
	return forwarded
}

// Stats returns a snapshot of the dispatch counters.
func (d *dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Matched:      d.matched.Load(),
		Decoded:      d.decoded.Load(),
		Dropped:      d.dropped.Load(),
		HashMismatch: d.hashMismatch.Load(),
	}
}
