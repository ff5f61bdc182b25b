package session

import (
	"log/slog"
	"time"

	"github.com/btsixad/btsixad/device"
)

// Worker owns one paired session's device lifecycle end to end (spec.md
// §4.6: "the session worker owns the device lifecycle").
type Worker struct {
	Device *device.Device

	table  *Table
	units  *UnitPool
	peer   string
	unit   int
	logger *slog.Logger
}

// NewWorker builds the worker for a freshly paired session. d must already
// be constructed against the paired control/interrupt channels.
func NewWorker(peer string, unit int, d *device.Device, table *Table, units *UnitPool, logger *slog.Logger) *Worker {
	return &Worker{Device: d, table: table, units: units, peer: peer, unit: unit, logger: logger}
}

// Run starts the device's reader goroutines and Closed-state inactivity
// timer, then blocks until the device disconnects. Both channels are
// already shut down by Device.Disconnect by the time WaitDisconnected
// returns, so Run only has to free the unit number and the table entry
// (spec.md §4.6: "on termination it closes both sockets, removes itself
// from the table, and frees the record").
func (w *Worker) Run(inactivityTimeout time.Duration) {
	go w.Device.RunControlReader()
	w.RunRemaining(inactivityTimeout)
}

// RunRemaining starts the interrupt reader and inactivity timer and blocks
// until disconnect, as Run does, but leaves the control reader to the
// caller. Used when the control reader must already be running before Run
// is entered, e.g. to complete a pre-advertisement control-channel
// handshake (spec.md §5, S1 ordering: activation precedes UHID_CREATE2).
func (w *Worker) RunRemaining(inactivityTimeout time.Duration) {
	go w.Device.RunInterruptReader()
	go w.Device.RunInactivityTimer(inactivityTimeout)

	w.Device.WaitDisconnected()

	w.units.Release(w.unit)
	w.table.Remove(w.peer)
	if w.logger != nil {
		w.logger.Info("session ended")
	}
}
