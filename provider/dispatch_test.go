package provider

import (
	"errors"
	"regexp"
	"testing"

	"github.com/lcmproject/lcmgo/errs"
	"github.com/lcmproject/lcmgo/spsc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherForwardMatchesSubscriptions(t *testing.T) {
	d := newDispatcher()

	var gotA, gotB [][]byte
	d.subs = []subscribeMsg{
		{id: 0, re: regexp.MustCompile("^TEMP$"), trampoline: func(m []byte) error {
			gotA = append(gotA, m)
			return nil
		}},
		{id: 1, re: regexp.MustCompile("^TEMP.*"), trampoline: func(m []byte) error {
			gotB = append(gotB, m)
			return nil
		}},
	}

	forwarded := d.forward("TEMP", []byte("payload"))
	require.True(t, forwarded)
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 1)

	forwarded = d.forward("TEMPERATURE_2", []byte("payload2"))
	require.True(t, forwarded)
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 2)

	forwarded = d.forward("OTHER", []byte("payload3"))
	assert.False(t, forwarded)
}

func TestDispatcherPrunesClosedSubscription(t *testing.T) {
	d := newDispatcher()
	d.subs = []subscribeMsg{
		{id: 0, re: regexp.MustCompile(".*"), trampoline: func([]byte) error {
			return errs.ErrMessageChannelClosed
		}},
	}

	d.forward("ANY", []byte("x"))
	assert.Empty(t, d.subs)
}

func TestDispatcherKeepsSubscriptionOnDecodeError(t *testing.T) {
	d := newDispatcher()
	d.subs = []subscribeMsg{
		{id: 0, re: regexp.MustCompile(".*"), trampoline: func([]byte) error {
			return &errs.HashMismatchError{Expected: 1, Found: 2}
		}},
	}

	forwarded := d.forward("ANY", []byte("x"))
	assert.False(t, forwarded)
	require.Len(t, d.subs, 1)

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Matched)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(1), stats.HashMismatch)
}

func TestDispatcherRemoveSubscription(t *testing.T) {
	d := newDispatcher()
	d.subs = []subscribeMsg{
		{id: 0, re: regexp.MustCompile(".*")},
		{id: 1, re: regexp.MustCompile(".*")},
	}

	d.removeSubscription(0)
	require.Len(t, d.subs, 1)
	assert.Equal(t, uint32(1), d.subs[0].id)
}

func TestDispatcherAddPendingDrains(t *testing.T) {
	d := newDispatcher()
	d.addPending([]subscribeMsg{{id: 5}, {id: 6}})
	require.Len(t, d.subs, 2)
}

func TestSubQueueDrainOrderAndReset(t *testing.T) {
	q := &subQueue{}
	q.add(subscribeMsg{id: 1})
	q.add(subscribeMsg{id: 2})
	q.remove(1)

	adds, removes := q.drain()
	require.Len(t, adds, 2)
	require.Equal(t, []uint32{1}, removes)

	// Drained means drained: the next call sees nothing.
	adds, removes = q.drain()
	assert.Empty(t, adds)
	assert.Empty(t, removes)
}

func TestSubQueueNeverBlocks(t *testing.T) {
	// Registration must always accept, no matter how many changes queue up
	// before the receive loop next drains.
	q := &subQueue{}
	for i := 0; i < 1000; i++ {
		q.add(subscribeMsg{id: uint32(i)})
		q.remove(uint32(i))
	}

	adds, removes := q.drain()
	assert.Len(t, adds, 1000)
	assert.Len(t, removes, 1000)
}

func TestErrorsIsMessageChannelClosed(t *testing.T) {
	err := errs.ErrMessageChannelClosed
	assert.True(t, errors.Is(err, errs.ErrMessageChannelClosed))
}

func TestUnsubscribeIsLazy(t *testing.T) {
	// The dispatcher's subscription list still contains the
	// trampoline right after unsubscribe, and only drops it once the closed
	// channel is discovered while forwarding a matching message.
	tx, rx := spsc.New[int](4)
	rx.Close()

	d := newDispatcher()
	d.subs = []subscribeMsg{
		{id: 0, re: regexp.MustCompile("^MATCH$"), trampoline: func([]byte) error {
			if tx.IsClosed() {
				return errs.ErrMessageChannelClosed
			}
			return nil
		}},
	}

	// A non-matching message doesn't touch the subscription at all.
	d.forward("NOMATCH", []byte("x"))
	require.Len(t, d.subs, 1)

	// The first matching message discovers the closed channel and removes it.
	d.forward("MATCH", []byte("x"))
	assert.Empty(t, d.subs)
}
