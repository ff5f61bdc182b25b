package l2cap_test

import (
	"testing"

	"github.com/btsixad/btsixad/l2cap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddrRoundTrip(t *testing.T) {
	addr, err := l2cap.ParseAddr("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	assert.Equal(t, [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, addr)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", l2cap.FormatAddr(addr))
}

func TestParseAddrEmptyIsAny(t *testing.T) {
	addr, err := l2cap.ParseAddr("")
	require.NoError(t, err)
	assert.Equal(t, [6]byte{}, addr)
}

func TestParseAddrInvalid(t *testing.T) {
	_, err := l2cap.ParseAddr("not-an-address")
	assert.Error(t, err)
}

func TestParseAddrLowercase(t *testing.T) {
	addr, err := l2cap.ParseAddr("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, addr)
}
