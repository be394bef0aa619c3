// Package provider implements the UDP multicast transport: datagram framing,
// message fragmentation and reassembly, subscription dispatch, and the
// background receive loop that feeds decoded messages back to user code.
package provider

import (
	"encoding/binary"

	"github.com/lcmproject/lcmgo/errs"
)

const (
	// shortHeaderMagic tags a single-datagram ("small") message.
	shortHeaderMagic uint32 = 0x4c433032
	// fragHeaderMagic tags one fragment of a multi-datagram message.
	fragHeaderMagic uint32 = 0x4c433033

	// MaxDatagramSize keeps outgoing datagrams comfortably below the
	// Ethernet MTU.
	MaxDatagramSize = 1400

	// MaxMessageSize is the largest payload LCM will publish. Reference
	// LCM discards anything larger.
	MaxMessageSize = 1 << 28

	// MaxChannelNameLength is the largest channel name LCM will publish.
	MaxChannelNameLength = 63

	// shortHeaderSize is the magic + sequence-number prefix of a small
	// datagram.
	shortHeaderSize = 8

	// fragHeaderSize is the magic, sequence number, payload size, fragment
	// offset, fragment number, and fragment count prefix of a fragment
	// datagram.
	fragHeaderSize = 20
)

// writeShortDatagram appends a small-datagram header, channel name, and
// payload to buf. The caller guarantees the total fits within
// MaxDatagramSize.
func writeShortDatagram(buf []byte, seq uint32, channel string, payload []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, shortHeaderMagic)
	buf = binary.BigEndian.AppendUint32(buf, seq)
	buf = append(buf, channel...)
	buf = append(buf, 0)
	buf = append(buf, payload...)
	return buf
}

// writeFragHeader appends a fragment-datagram header to buf, and the channel
// name (plus its NUL terminator) when fragmentNumber is 0.
func writeFragHeader(buf []byte, seq, payloadSize uint32, fragmentOffset uint32, fragmentNumber, nFragments uint16, channel string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, fragHeaderMagic)
	buf = binary.BigEndian.AppendUint32(buf, seq)
	buf = binary.BigEndian.AppendUint32(buf, payloadSize)
	buf = binary.BigEndian.AppendUint32(buf, fragmentOffset)
	buf = binary.BigEndian.AppendUint16(buf, fragmentNumber)
	buf = binary.BigEndian.AppendUint16(buf, nFragments)
	if fragmentNumber == 0 {
		buf = append(buf, channel...)
		buf = append(buf, 0)
	}
	return buf
}

// readMagic reads the leading 4-byte magic tag from a datagram, returning
// errs.ErrBadMagic if it is neither recognized LCM magic value.
func readMagic(datagram []byte) (uint32, error) {
	if len(datagram) < 4 {
		return 0, errs.ErrBadMagic
	}
	magic := binary.BigEndian.Uint32(datagram[0:4])
	if magic != shortHeaderMagic && magic != fragHeaderMagic {
		return 0, errs.ErrBadMagic
	}
	return magic, nil
}
