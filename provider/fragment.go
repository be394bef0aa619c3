package provider

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"github.com/lcmproject/lcmgo/errs"
	"github.com/lcmproject/lcmgo/internal/pool"
)

// fragmentBuffer accumulates the fragments of one in-flight message from a
// single sender. A buffer is discarded and restarted whenever a fragment
// with a mismatched sequence number or payload size arrives, matching the
// reference implementation's "drop on resync" behavior. The reassembly
// buffer itself comes from the pooled DatagramSetBuffer allocator and is
// reused (Reset + grow) across every message from the same sender rather
// than reallocated each time.
type fragmentBuffer struct {
	partsRemaining uint16
	sequenceNumber uint32
	payloadSize    uint32
	channel        string
	buf            *pool.ByteBuffer
}

// splitFragments breaks payload into the sequence of fragment datagrams
// needed to deliver it on channel, following the reference algorithm in
// Backend::send_frag_datagram: the first fragment carries the channel name
// and a correspondingly smaller payload slice, the rest fill the datagram.
func splitFragments(seq uint32, channel string, payload []byte) ([][]byte, error) {
	available := MaxDatagramSize - fragHeaderSize
	firstAvailable := available - len(channel) - 1

	nFragments := 1 + (len(payload)-firstAvailable+available-1)/available
	if nFragments > 1<<16-1 {
		return nil, errs.ErrTooManyFragments
	}

	datagrams := make([][]byte, 0, nFragments)
	remaining := payload
	var fragmentOffset uint32

	for fragmentNumber := 0; fragmentNumber < nFragments; fragmentNumber++ {
		buf := make([]byte, 0, MaxDatagramSize)
		buf = writeFragHeader(buf, seq, uint32(len(payload)), fragmentOffset, uint16(fragmentNumber), uint16(nFragments), channel)

		room := MaxDatagramSize - len(buf)
		n := len(remaining)
		if n > room {
			n = room
		}
		buf = append(buf, remaining[:n]...)

		datagrams = append(datagrams, buf)
		remaining = remaining[n:]
		fragmentOffset += uint32(n)
	}

	return datagrams, nil
}

// readFragHeader parses a fragment datagram's fixed-size header fields.
func readFragHeader(datagram []byte) (seq, payloadSize, fragmentOffset uint32, fragmentNumber, nFragments uint16, ok bool) {
	if len(datagram) < fragHeaderSize {
		return 0, 0, 0, 0, 0, false
	}
	seq = binary.BigEndian.Uint32(datagram[4:8])
	payloadSize = binary.BigEndian.Uint32(datagram[8:12])
	fragmentOffset = binary.BigEndian.Uint32(datagram[12:16])
	fragmentNumber = binary.BigEndian.Uint16(datagram[16:18])
	nFragments = binary.BigEndian.Uint16(datagram[18:20])
	return seq, payloadSize, fragmentOffset, fragmentNumber, nFragments, true
}

// applyFragment folds one fragment datagram into fb, resetting fb first if
// the fragment belongs to a new message. It returns the channel name and
// completed payload, and true, once the last fragment has arrived.
func (fb *fragmentBuffer) applyFragment(datagram []byte) (channel string, payload []byte, complete bool, ok bool) {
	seq, payloadSize, fragmentOffset, fragmentNumber, nFragments, headerOK := readFragHeader(datagram)
	if !headerOK {
		return "", nil, false, false
	}
	if payloadSize > MaxMessageSize {
		return "", nil, false, false
	}

	if fb.sequenceNumber != seq || fb.payloadSize != payloadSize {
		fb.partsRemaining = nFragments
		fb.sequenceNumber = seq
		fb.payloadSize = payloadSize
		fb.channel = ""
		if fb.buf == nil {
			fb.buf = pool.GetDatagramSetBuffer()
		}
		fb.buf.Reset()
		fb.buf.ExtendOrGrow(int(payloadSize))
	}

	message := datagram[fragHeaderSize:]
	if fragmentNumber == 0 {
		nameEnd := bytes.IndexByte(datagram[fragHeaderSize:], 0)
		if nameEnd < 0 {
			return "", nil, false, false
		}
		name := datagram[fragHeaderSize : fragHeaderSize+nameEnd]
		if !utf8.Valid(name) {
			return "", nil, false, false
		}
		if fb.channel == "" {
			fb.channel = string(name)
		}
		message = datagram[fragHeaderSize+nameEnd+1:]
	}

	end := int(fragmentOffset) + len(message)
	if fragmentOffset > payloadSize || end > fb.buf.Len() {
		return "", nil, false, false
	}
	copy(fb.buf.Bytes()[fragmentOffset:end], message)

	if fb.partsRemaining == 0 {
		return "", nil, false, false
	}
	fb.partsRemaining--

	if fb.partsRemaining == 0 {
		return fb.channel, fb.buf.Bytes(), true, true
	}
	return "", nil, false, true
}
