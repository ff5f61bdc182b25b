// Package session implements the global session table that pairs an
// incoming control-channel accept with its matching interrupt-channel
// accept for the same peer address (spec.md §4.6), plus the worker that
// owns a paired session's device lifecycle end to end.
package session

import (
	"sync"

	"github.com/btsixad/btsixad/l2cap"
)

// Channel identifies which of the two L2CAP channels a socket was accepted
// on.
type Channel int

const (
	Control Channel = iota
	Interrupt
)

type slotPair struct {
	ctrl *l2cap.Conn
	intr *l2cap.Conn
}

// Table is the process-wide, address-keyed session table (spec.md §4.6,
// §5: "a separate process-wide mutex protects the session table").
type Table struct {
	mu      sync.Mutex
	entries map[string]*slotPair
}

// NewTable returns an empty session table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*slotPair)}
}

// Accept attaches conn to peer's channel slot (spec.md §4.6):
//
//   - No entry for peer: create one with this slot filled, the other
//     absent. Returns ok=false, rejected=false; the caller holds the
//     connection open and waits for the peer's other channel.
//   - Entry exists with this channel's slot already occupied: the caller
//     must close conn itself (rejected as a duplicate channel); returns
//     rejected=true.
//   - Entry exists with only the opposite slot occupied: this is the
//     unique point at which both halves are available. Returns both
//     sockets and ok=true; the caller spawns the session worker. The entry
//     stays in the table (now fully paired) until Remove is called.
func (t *Table) Accept(peer string, channel Channel, conn *l2cap.Conn) (ctrl, intr *l2cap.Conn, ok, rejected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, exists := t.entries[peer]
	if !exists {
		e = &slotPair{}
		t.entries[peer] = e
	}

	slot := &e.ctrl
	if channel == Interrupt {
		slot = &e.intr
	}

	if *slot != nil {
		return nil, nil, false, true
	}
	*slot = conn

	if e.ctrl != nil && e.intr != nil {
		return e.ctrl, e.intr, true, false
	}
	return nil, nil, false, false
}

// Remove drops peer's table entry. Called by the session worker on
// termination (spec.md §4.6: "removes itself from the table, and frees the
// record"). Nothing removes a half-paired entry: its lone socket stays in the
// table until the partner channel arrives.
func (t *Table) Remove(peer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, peer)
}
