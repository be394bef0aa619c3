package provider

import (
	"bytes"
	"fmt"
	"net"
	"regexp"
	"sync"
	"time"

	"github.com/lcmproject/lcmgo/compress"
	"github.com/lcmproject/lcmgo/errs"
	"github.com/lcmproject/lcmgo/internal/pool"
	"github.com/lcmproject/lcmgo/spsc"
	"github.com/lcmproject/lcmgo/wire"
	"github.com/sirupsen/logrus"
)

// Subscription identifies a previously registered callback so it can later
// be removed with Unsubscribe.
type Subscription struct {
	id uint32
}

// userSubscription drains one callback's SPSC receiver. It lives on the
// Provider, separate from the backend goroutine's regex-matching
// subscription list, mirroring the reference split between the Lcm object's
// own subscriptions Vec and the Backend's.
type userSubscription struct {
	id    uint32
	drain func()
}

// Provider is a UDP multicast transport: it publishes messages directly from
// the caller's goroutine and receives them on a dedicated background
// goroutine, handing decoded messages back through per-subscription SPSC
// rings that Handle/HandleTimeout drain.
type Provider struct {
	socket *net.UDPConn
	addr   *net.UDPAddr
	logger *logrus.Logger
	codec  compress.Codec

	notifyCh chan struct{}
	doneCh   chan struct{}
	subq     *subQueue

	mu        sync.Mutex
	userSubs  []userSubscription
	nextSubID uint32

	seqMu sync.Mutex
	seq   uint32

	dispatch  *dispatcher
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Subscribe registers callback to be called with every message of concrete
// type T (addressed through PT, its Message-implementing pointer type)
// published on a channel matching the regular expression channel. bufferSize
// bounds the SPSC ring between the receive goroutine and callback dispatch;
// once full, the oldest undelivered message for this subscription is
// dropped.
//
// T and PT are ordinarily both inferred from callback's argument type, so a
// call site never names them: Subscribe(p, "TEMP", 32, func(m *Temperature) {...}).
// The split exists because a bare generic M wire.Message gives no way to
// construct a fresh decode target when M is a pointer type — var zero M
// would be nil. PT's constraint pins it to *T, so new(T) always produces a
// live value to decode into.
func Subscribe[T any, PT interface {
	*T
	wire.Message
}](p *Provider, channel string, bufferSize int, callback func(PT)) (Subscription, error) {
	re, err := regexp.Compile(channel)
	if err != nil {
		return Subscription{}, fmt.Errorf("%w: %v", errs.ErrInvalidRegex, err)
	}

	tx, rx := spsc.New[PT](bufferSize)

	conversion := func(payload []byte) error {
		if tx.IsClosed() {
			return errs.ErrMessageChannelClosed
		}

		raw, err := compress.Unenvelope(p.codec, payload)
		if err != nil {
			return err
		}

		msg, err := wire.DecodeWithHash(bytes.NewReader(raw), PT(new(T)))
		if err != nil {
			return err
		}

		tx.Send(msg)
		return nil
	}

	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.mu.Unlock()

	select {
	case <-p.doneCh:
		return Subscription{}, errs.ErrProviderClosed
	default:
	}
	p.subq.add(subscribeMsg{id: id, re: re, trampoline: conversion})

	drain := func() {
		for i := 0; i < rx.Capacity(); i++ {
			m, ok := rx.Recv()
			if !ok {
				break
			}
			callback(m)
		}
	}

	p.mu.Lock()
	p.userSubs = append(p.userSubs, userSubscription{id: id, drain: drain})
	p.mu.Unlock()

	return Subscription{id: id}, nil
}

// Unsubscribe removes a subscription. The callback is dropped at once; the
// receive goroutine drops its side when it next drains its registration
// queue, which it does on receipt of its next datagram, on any channel. The
// subscription's ring is not closed, so removal does not wait for a
// datagram that matches the subscription.
func (p *Provider) Unsubscribe(sub Subscription) {
	p.mu.Lock()
	kept := p.userSubs[:0]
	for _, s := range p.userSubs {
		if s.id != sub.id {
			kept = append(kept, s)
		}
	}
	p.userSubs = kept
	p.mu.Unlock()

	p.subq.remove(sub.id)
}

// Publish encodes msg, prepended by its type hash, and sends it on channel
// as one or more UDP multicast datagrams, fragmenting as needed.
func Publish[M wire.Message](p *Provider, channel string, msg M) error {
	if len(channel) > MaxChannelNameLength {
		return errs.ErrChannelTooLong
	}

	payload, err := wire.EncodeWithHash(msg)
	if err != nil {
		return err
	}
	if len(payload) > MaxMessageSize {
		return errs.ErrMessageTooLarge
	}

	payload, err = compress.Envelope(p.codec, payload)
	if err != nil {
		return err
	}

	return p.publishPayload(channel, payload)
}

// publishPayload numbers and sends one message. The sequence counter is held
// under seqMu for the whole send, not just the increment: the counter only
// advances once every datagram for this message is off the wire, so a failed
// publish leaves the next sequence number unconsumed, matching the reference
// backend's retransmit-on-the-same-seq behavior instead of burning a number
// on a send that never reached the network.
func (p *Provider) publishPayload(channel string, payload []byte) error {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()
	seq := p.seq

	available := MaxDatagramSize - shortHeaderSize - (len(channel) + 1)
	if len(payload) > available {
		datagrams, err := splitFragments(seq, channel, payload)
		if err != nil {
			return err
		}
		for _, dg := range datagrams {
			if err := p.sendDatagram(dg); err != nil {
				return err
			}
		}
		p.seq++
		return nil
	}

	bb := pool.GetDatagramBuffer()
	defer pool.PutDatagramBuffer(bb)
	bb.B = writeShortDatagram(bb.B, seq, channel, payload)
	if err := p.sendDatagram(bb.B); err != nil {
		return err
	}
	p.seq++
	return nil
}

func (p *Provider) sendDatagram(buf []byte) error {
	if p.socket == nil {
		return errs.ErrProviderClosed
	}
	n, err := p.socket.WriteToUDP(buf, p.addr)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return errs.ErrMessageNotSent
	}
	return nil
}

// Handle blocks until at least one message is queued, then dispatches every
// currently available message to its subscription's callback.
func (p *Provider) Handle() error {
	select {
	case <-p.notifyCh:
	case <-p.doneCh:
		return errs.ErrProviderClosed
	}
	p.drainUserSubs()
	return nil
}

// HandleTimeout is Handle with a bound on how long to wait for a message.
// A timeout is not an error: subscriptions are drained either way, matching
// the reference implementation's recv_timeout handling.
func (p *Provider) HandleTimeout(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.notifyCh:
	case <-timer.C:
	case <-p.doneCh:
		return errs.ErrProviderClosed
	}
	p.drainUserSubs()
	return nil
}

func (p *Provider) drainUserSubs() {
	p.mu.Lock()
	subs := make([]userSubscription, len(p.userSubs))
	copy(subs, p.userSubs)
	p.mu.Unlock()

	for _, s := range subs {
		s.drain()
	}
}

// Stats returns a snapshot of the receive goroutine's dispatch counters.
func (p *Provider) Stats() DispatchStats {
	return p.dispatch.Stats()
}

// Close tears down the receive goroutine and closes the underlying socket.
// Safe to call more than once.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		close(p.doneCh)
		p.socket.Close()
	})
	p.wg.Wait()
	return nil
}
