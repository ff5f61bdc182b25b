package session_test

import (
	"testing"

	"github.com/btsixad/btsixad/l2cap"
	"github.com/btsixad/btsixad/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptPairsOppositeChannels(t *testing.T) {
	table := session.NewTable()
	var ctrlConn, intrConn *l2cap.Conn = &l2cap.Conn{}, &l2cap.Conn{}

	_, _, ok, rejected := table.Accept("aa:bb:cc:dd:ee:ff", session.Control, ctrlConn)
	assert.False(t, ok)
	assert.False(t, rejected)

	ctrl, intr, ok, rejected := table.Accept("aa:bb:cc:dd:ee:ff", session.Interrupt, intrConn)
	require.True(t, ok)
	assert.False(t, rejected)
	assert.Same(t, ctrlConn, ctrl)
	assert.Same(t, intrConn, intr)
}

func TestAcceptRejectsDuplicateChannel(t *testing.T) {
	table := session.NewTable()
	first := &l2cap.Conn{}
	second := &l2cap.Conn{}

	_, _, ok, rejected := table.Accept("aa:bb:cc:dd:ee:ff", session.Control, first)
	require.False(t, ok)
	require.False(t, rejected)

	_, _, ok, rejected = table.Accept("aa:bb:cc:dd:ee:ff", session.Control, second)
	assert.False(t, ok)
	assert.True(t, rejected, "second control accept for the same peer must be rejected")
}

func TestRemoveClearsEntry(t *testing.T) {
	table := session.NewTable()
	table.Accept("aa:bb:cc:dd:ee:ff", session.Control, &l2cap.Conn{})
	table.Remove("aa:bb:cc:dd:ee:ff")

	// After removal, a fresh control accept starts a brand new pairing
	// rather than being rejected as a duplicate.
	_, _, ok, rejected := table.Accept("aa:bb:cc:dd:ee:ff", session.Control, &l2cap.Conn{})
	assert.False(t, ok)
	assert.False(t, rejected)
}

func TestUnitPoolSmallestUnused(t *testing.T) {
	pool := session.NewUnitPool()
	a := pool.Acquire()
	b := pool.Acquire()
	c := pool.Acquire()
	assert.Equal(t, []int{0, 1, 2}, []int{a, b, c})

	pool.Release(b)
	d := pool.Acquire()
	assert.Equal(t, b, d, "released unit must be the next one reused")
}
