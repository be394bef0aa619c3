// Package lcmgo is a Go implementation of LCM (Lightweight Communications
// and Marshalling), a publish/subscribe message passing system with an
// emphasis on low overhead, type-safe marshalling and strong support for
// real-time systems.
//
// Messages are published and received over UDP multicast. Each message type
// carries a structural hash derived from its field layout, computed at
// codegen time, so a receiver can detect an unexpected message shape before
// trying to decode it.
//
// # Basic usage
//
//	lcm, err := lcmgo.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lcm.Close()
//
//	sub, err := lcmgo.Subscribe(lcm, "TEMP", 32, func(msg *Temperature) {
//	    fmt.Printf("got temperature: %v\n", msg.DegCelsius)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lcm.Unsubscribe(sub)
//
//	for {
//	    if err := lcm.Handle(); err != nil {
//	        break
//	    }
//	}
//
// Publishing uses the same pattern:
//
//	err := lcmgo.Publish(lcm, "TEMP", &Temperature{UTime: time.Now().UnixMicro(), DegCelsius: 21.5})
package lcmgo

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/lcmproject/lcmgo/errs"
	"github.com/lcmproject/lcmgo/provider"
	"github.com/lcmproject/lcmgo/wire"
)

// DefaultURL is used when no URL is given to New and LCM_DEFAULT_URL is
// unset or empty.
const DefaultURL = "udpm://239.255.76.67:7667?ttl=0"

// LCM is a publish/subscribe facade over a transport provider. The zero
// value is not usable; construct one with New or NewWithURL.
type LCM struct {
	provider *provider.Provider
}

// New creates an LCM instance using LCM_DEFAULT_URL if set and non-empty,
// otherwise DefaultURL.
func New(opts ...provider.Option) (*LCM, error) {
	lcmURL := os.Getenv("LCM_DEFAULT_URL")
	if lcmURL == "" {
		lcmURL = DefaultURL
	}
	return NewWithURL(lcmURL, opts...)
}

// NewWithURL creates an LCM instance using the given URL, of the form
// "udpm://<ip>:<port>?ttl=<n>". Components left out of the authority fall
// back to the reference defaults (239.255.76.67:7667, ttl 0).
func NewWithURL(lcmURL string, opts ...provider.Option) (*LCM, error) {
	scheme, network, query, err := parseLCMURL(lcmURL)
	if err != nil {
		return nil, err
	}
	if scheme != "udpm" {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownProvider, scheme)
	}

	p, err := provider.New(network, query, opts...)
	if err != nil {
		return nil, err
	}

	return &LCM{provider: p}, nil
}

// parseLCMURL splits an LCM URL into its scheme, host:port authority, and
// query parameters.
func parseLCMURL(lcmURL string) (scheme, network string, query map[string]string, err error) {
	u, err := url.Parse(lcmURL)
	if err != nil {
		return "", "", nil, fmt.Errorf("lcmgo: invalid lcm url %q: %w", lcmURL, err)
	}

	query = make(map[string]string, len(u.Query()))
	for k, v := range u.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	return u.Scheme, u.Host, query, nil
}

// Subscribe registers callback to be called with every message of concrete
// type T (addressed through its Message-implementing pointer type PT)
// published on a channel matching the regular expression channel.
// bufferSize bounds the number of undelivered messages held for this
// subscription; once full, the oldest is dropped.
func Subscribe[T any, PT interface {
	*T
	wire.Message
}](lcm *LCM, channel string, bufferSize int, callback func(PT)) (provider.Subscription, error) {
	return provider.Subscribe[T, PT](lcm.provider, channel, bufferSize, callback)
}

// Unsubscribe removes a subscription registered with Subscribe.
func (lcm *LCM) Unsubscribe(sub provider.Subscription) {
	lcm.provider.Unsubscribe(sub)
}

// Publish encodes msg, prefixed by its type hash, and sends it on channel.
func Publish[M wire.Message](lcm *LCM, channel string, msg M) error {
	return provider.Publish(lcm.provider, channel, msg)
}

// Handle blocks until at least one message has been received, then
// dispatches every currently queued message to its subscription's callback.
func (lcm *LCM) Handle() error {
	return lcm.provider.Handle()
}

// HandleTimeout is Handle bounded by a timeout. A timeout is not treated as
// an error.
func (lcm *LCM) HandleTimeout(timeout time.Duration) error {
	return lcm.provider.HandleTimeout(timeout)
}

// Stats returns a snapshot of the receive goroutine's dispatch counters.
func (lcm *LCM) Stats() provider.DispatchStats {
	return lcm.provider.Stats()
}

// Close tears down the receive goroutine and the underlying socket. Safe to
// call more than once.
func (lcm *LCM) Close() error {
	return lcm.provider.Close()
}
