package provider

import (
	"bytes"
	"errors"
	"net"
	"net/netip"
	"unicode/utf8"

	"github.com/lcmproject/lcmgo/internal/pool"
	"github.com/sirupsen/logrus"
)

// backend owns the receiving socket and runs on its own goroutine, decoding
// datagrams and forwarding them to subscribers without ever blocking the
// caller of Publish/Subscribe/Handle.
type backend struct {
	socket    *net.UDPConn
	notifyCh  chan struct{}
	doneCh    chan struct{}
	subq      *subQueue
	dispatch  *dispatcher
	fragments map[netip.AddrPort]*fragmentBuffer
	log       *logrus.Entry
}

func newBackend(socket *net.UDPConn, notifyCh, doneCh chan struct{}, subq *subQueue, log *logrus.Entry) *backend {
	dispatch := newDispatcher()
	dispatch.log = log
	return &backend{
		socket:    socket,
		notifyCh:  notifyCh,
		doneCh:    doneCh,
		subq:      subq,
		dispatch:  dispatch,
		fragments: make(map[netip.AddrPort]*fragmentBuffer),
		log:       log,
	}
}

// run is the receive-thread loop. It exits when a read fails (including the
// socket having been closed by Close) or when notify reports the facade has
// torn down. It does not close the socket itself.
func (b *backend) run() error {
	buf := make([]byte, 65535)
	defer b.releaseFragments()

	for {
		n, from, err := b.socket.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if n == len(buf) {
			b.log.Debug("read buffer fully utilized, bytes may have been dropped")
		}

		b.drainSubscribeRequests()

		if n < 4 {
			b.log.Trace("datagram too short to be an lcm message, dropping")
			continue
		}

		if b.processDatagram(buf[:n], from) && !b.notify() {
			return nil
		}
	}
}

func (b *backend) drainSubscribeRequests() {
	adds, removes := b.subq.drain()
	b.dispatch.addPending(adds)
	for _, id := range removes {
		b.dispatch.removeSubscription(id)
	}
}

// processDatagram dispatches a raw datagram by its leading magic tag and
// reports whether any subscriber accepted the resulting message.
func (b *backend) processDatagram(datagram []byte, sender netip.AddrPort) bool {
	magic, err := readMagic(datagram)
	if err != nil {
		b.log.Trace("invalid magic in datagram, dropping")
		return false
	}

	switch magic {
	case shortHeaderMagic:
		return b.processShortDatagram(datagram)
	case fragHeaderMagic:
		return b.processFragDatagram(datagram, sender)
	default:
		return false
	}
}

func (b *backend) processShortDatagram(datagram []byte) bool {
	if len(datagram) < shortHeaderSize {
		b.log.Debug("short datagram truncated before end of header, dropping")
		return false
	}
	body := datagram[shortHeaderSize:]
	nameEnd := bytes.IndexByte(body, 0)
	if nameEnd < 0 {
		b.log.Debug("unable to parse channel name in short datagram, dropping")
		return false
	}

	name := body[:nameEnd]
	if !utf8.Valid(name) {
		b.log.Debug("channel name in short datagram is not valid utf-8, dropping")
		return false
	}

	channel := string(name)
	message := body[nameEnd+1:]
	return b.dispatch.forward(channel, message)
}

// releaseFragments returns every in-flight reassembly buffer to the pool
// once the receive loop exits.
func (b *backend) releaseFragments() {
	for addr, fb := range b.fragments {
		if fb.buf != nil {
			pool.PutDatagramSetBuffer(fb.buf)
			fb.buf = nil
		}
		delete(b.fragments, addr)
	}
}

func (b *backend) processFragDatagram(datagram []byte, sender netip.AddrPort) bool {
	fb, ok := b.fragments[sender]
	if !ok {
		fb = &fragmentBuffer{}
		b.fragments[sender] = fb
	}

	channel, payload, complete, ok := fb.applyFragment(datagram)
	if !ok {
		b.log.Debug("unable to parse fragment datagram, dropping")
		return false
	}
	if !complete {
		return false
	}

	return b.dispatch.forward(channel, payload)
}

// notify tells the facade at least one message is queued. A full channel
// still counts as success: the facade will drain everything available on
// its next Handle call. Once doneCh is closed (the facade has torn down),
// notify reports failure and run exits.
func (b *backend) notify() bool {
	select {
	case <-b.doneCh:
		return false
	default:
	}

	select {
	case b.notifyCh <- struct{}{}:
	default:
	}
	return true
}
