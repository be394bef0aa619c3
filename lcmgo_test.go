package lcmgo

import (
	"testing"

	"github.com/lcmproject/lcmgo/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLCMURL(t *testing.T) {
	scheme, network, query, err := parseLCMURL("udpm://239.255.76.67:7667?ttl=1")
	require.NoError(t, err)
	assert.Equal(t, "udpm", scheme)
	assert.Equal(t, "239.255.76.67:7667", network)
	assert.Equal(t, "1", query["ttl"])
}

func TestParseLCMURLIgnoresUnknownKeys(t *testing.T) {
	_, _, query, err := parseLCMURL("udpm://239.255.76.67:7667?ttl=3&recv_buf_size=2097152")
	require.NoError(t, err)
	assert.Equal(t, "3", query["ttl"])
	assert.Equal(t, "2097152", query["recv_buf_size"])
}

func TestParseLCMURLEmptyAuthority(t *testing.T) {
	scheme, network, _, err := parseLCMURL("udpm://")
	require.NoError(t, err)
	assert.Equal(t, "udpm", scheme)
	assert.Empty(t, network)
}

func TestParseLCMURLMalformed(t *testing.T) {
	_, _, _, err := parseLCMURL("://missing-scheme")
	require.Error(t, err)
}

func TestNewWithURLUnknownScheme(t *testing.T) {
	_, err := NewWithURL("file:///tmp/lcm.log")
	require.ErrorIs(t, err, errs.ErrUnknownProvider)
}

func TestNewWithURLInvalidTTL(t *testing.T) {
	_, err := NewWithURL("udpm://239.255.76.67:7667?ttl=banana")
	require.ErrorIs(t, err, errs.ErrInvalidLCMURL)
}

func TestNewWithURLInvalidAddress(t *testing.T) {
	_, err := NewWithURL("udpm://not-an-ip:7667")
	require.ErrorIs(t, err, errs.ErrInvalidLCMURL)
}

func TestNewReadsDefaultURLFromEnvironment(t *testing.T) {
	// A non-udpm scheme fails before any socket is opened, proving the
	// environment variable was consulted.
	t.Setenv("LCM_DEFAULT_URL", "tcpq://localhost:7700")

	_, err := New()
	require.ErrorIs(t, err, errs.ErrUnknownProvider)
}

func TestNewIgnoresEmptyEnvironmentURL(t *testing.T) {
	t.Setenv("LCM_DEFAULT_URL", "")

	// With the variable empty, New falls back to DefaultURL, which is a
	// well-formed udpm URL; any failure past URL validation comes from the
	// socket layer, never from URL parsing.
	lcm, err := New()
	if err != nil {
		assert.NotErrorIs(t, err, errs.ErrUnknownProvider)
		assert.NotErrorIs(t, err, errs.ErrInvalidLCMURL)
		return
	}
	require.NoError(t, lcm.Close())
}
