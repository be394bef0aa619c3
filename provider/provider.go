package provider

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"syscall"

	"github.com/lcmproject/lcmgo/compress"
	"github.com/lcmproject/lcmgo/errs"
	"github.com/lcmproject/lcmgo/internal/options"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Option configures a Provider at construction time.
type Option = options.Option[*Provider]

// WithCompression attaches a codec used to compress every published payload
// and decompress every enveloped payload on receipt. The default provider
// has no codec and is bit-exact with reference LCM 0.9.
func WithCompression(codec compress.Codec) Option {
	return options.NoError(func(p *Provider) {
		p.codec = codec
	})
}

// WithLogger overrides the provider's logrus logger. Defaults to
// logrus.StandardLogger().
func WithLogger(logger *logrus.Logger) Option {
	return options.NoError(func(p *Provider) {
		p.logger = logger
	})
}

// New starts a UDPM provider listening and publishing on network, which is
// parsed as "<ip>:<port>" with "ttl" drawn from options (default "0").
// Missing ip/port fall back to the reference defaults
// (239.255.76.67:7667).
func New(network string, queryOpts map[string]string, opts ...Option) (*Provider, error) {
	addr, port, err := parseNetworkString(network)
	if err != nil {
		return nil, err
	}

	ttlStr := queryOpts["ttl"]
	if ttlStr == "" {
		ttlStr = "0"
	}
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ttl %q", errs.ErrInvalidLCMURL, ttlStr)
	}

	socket, err := setupUDPSocket(addr, port, ttl)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		socket: socket,
		addr:   &net.UDPAddr{IP: addr, Port: port},
		logger: logrus.StandardLogger(),
	}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	p.notifyCh = make(chan struct{}, 1)
	p.doneCh = make(chan struct{})
	p.subq = &subQueue{}

	entry := p.logger.WithField("component", "lcmgo.provider")
	b := newBackend(socket, p.notifyCh, p.doneCh, p.subq, entry)
	p.dispatch = b.dispatch

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := b.run(); err != nil {
			entry.WithError(err).Error("receive thread terminated")
		}
		p.closeOnce.Do(func() {
			close(p.doneCh)
			p.socket.Close()
		})
	}()

	return p, nil
}

func parseNetworkString(network string) (net.IP, int, error) {
	addrPart := network
	portPart := ""
	if idx := indexRune(network, ':'); idx >= 0 {
		addrPart = network[:idx]
		portPart = network[idx+1:]
	}

	if addrPart == "" {
		addrPart = "239.255.76.67"
	}
	if portPart == "" {
		portPart = "7667"
	}

	ip := net.ParseIP(addrPart).To4()
	if ip == nil {
		return nil, 0, fmt.Errorf("%w: invalid multicast address %q", errs.ErrInvalidLCMURL, addrPart)
	}
	port, err := strconv.Atoi(portPart)
	if err != nil || port < 0 || port > 65535 {
		return nil, 0, fmt.Errorf("%w: invalid port %q", errs.ErrInvalidLCMURL, portPart)
	}

	return ip, port, nil
}

func indexRune(s string, r rune) int {
	for i, c := range s {
		if c == r {
			return i
		}
	}
	return -1
}

// setupUDPSocket binds a UDP socket on the wildcard interface, enables
// address/port reuse, joins the given multicast group, and sets the
// outgoing multicast TTL.
func setupUDPSocket(addr net.IP, port, ttl int) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var controlErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					controlErr = err
					return
				}
				if runtime.GOOS == "darwin" || runtime.GOOS == "freebsd" {
					if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
						controlErr = err
						return
					}
				}
			})
			if err != nil {
				return err
			}
			return controlErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, err
	}
	conn := pc.(*net.UDPConn)

	rawConn, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, err
	}

	var joinErr, ttlErr error
	if err := rawConn.Control(func(fd uintptr) {
		mreq := &unix.IPMreq{}
		copy(mreq.Multiaddr[:], addr.To4())
		joinErr = unix.SetsockoptIPMreq(int(fd), unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq)
		ttlErr = unix.SetsockoptByte(int(fd), unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, byte(ttl))
	}); err != nil {
		conn.Close()
		return nil, err
	}
	if joinErr != nil {
		conn.Close()
		return nil, joinErr
	}
	if ttlErr != nil {
		conn.Close()
		return nil, ttlErr
	}

	return conn, nil
}
