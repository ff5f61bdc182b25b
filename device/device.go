// Package device implements the per-controller state machine: the
// Open/Close/Disconnect lifecycle, the single in-flight control-query slot,
// and the single-slot latest-input buffer (spec.md §4.3, §4.4, §4.5).
//
// The package knows nothing about sockets or about Sixaxis. It talks to the
// wire through the small Conn interface and to the gamepad-specific report
// shapes through Capability, so a second adapter could be added without
// touching anything here (spec.md §9 design note).
package device

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/btsixad/btsixad/hidp"
	"github.com/btsixad/btsixad/internal/blog"
)

// State is the device lifecycle state (spec.md §4.3).
type State int

const (
	Closed State = iota
	Opened
	Disconnected
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opened:
		return "opened"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

var (
	ErrBusy         = errors.New("device: busy")
	ErrDisconnected = errors.New("device: disconnected")
	ErrCancelled    = errors.New("device: cancelled")
)

// Conn is the minimal L2CAP channel surface the device needs: blocking
// reads/writes. The l2cap package's real sockets satisfy it structurally.
type Conn interface {
	io.Reader
	io.Writer
}

// Shutdowner is implemented by connections that can be shut down for
// read+write without closing the descriptor, so a concurrent reader
// observes EOF rather than a reused fd number (spec.md §4.3 "disconnect").
// Connections that don't implement it fall back to Close.
type Shutdowner interface {
	Shutdown() error
}

// waitQuantum is the absolute-deadline timed-wait bound used for every
// internal predicate wait (spec.md §4.3, §5).
const waitQuantum = 100 * time.Millisecond

// reportSlot is the single-slot latest-input buffer (spec.md §3, §4.5).
type reportSlot struct {
	buf   [hidp.MaxTransactionSize]byte
	n     int
	valid bool
}

// Device is one Sixaxis (or future capability) controller session, spanning
// one control channel and one interrupt channel to the same peer.
type Device struct {
	mu      sync.Mutex
	changed chan struct{}

	Peer string
	Unit int
	cap  Capability

	state State

	ctrl Conn
	intr Conn

	logger *slog.Logger
	raw    blog.RawLogger

	input reportSlot
	query controlQuery

	diag uint32
}

// New constructs a Device bound to the given peer address, unit number,
// capability set, and already-accepted control/interrupt channels.
func New(peer string, unit int, capa Capability, ctrl, intr Conn, logger *slog.Logger, raw blog.RawLogger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	if raw == nil {
		raw = blog.NewRaw(nil, false)
	}
	return &Device{
		changed: make(chan struct{}),
		Peer:    peer,
		Unit:    unit,
		cap:     capa,
		state:   Closed,
		ctrl:    ctrl,
		intr:    intr,
		logger:  logger.With("peer", peer, "unit", unit),
		raw:     raw,
	}
}

// State reports the current lifecycle state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Descriptor returns the HID report descriptor this device's capability
// publishes (spec.md §4.2, §4.7 "get-descriptor").
func (d *Device) Descriptor() ReportDescriptor {
	return d.cap.Descriptor()
}

// broadcastLocked wakes every waiter blocked in waitLocked. Called with mu
// held; replaces the channel so earlier waiters observe the close exactly
// once (spec.md §5 "condition-variable unbounded waits... a broadcast is
// guaranteed to accompany every predicate-flip").
func (d *Device) broadcastLocked() {
	close(d.changed)
	d.changed = make(chan struct{})
}

// waitLocked blocks until the next broadcastLocked or until timeout elapses,
// whichever comes first. Called with mu held; re-acquires mu before
// returning.
func (d *Device) waitLocked(timeout time.Duration) {
	ch := d.changed
	d.mu.Unlock()
	timer := time.NewTimer(timeout)
	select {
	case <-ch:
		timer.Stop()
	case <-timer.C:
	}
	d.mu.Lock()
}

// Open transitions Closed -> Opened, clears the input slot, and issues the
// Sixaxis activation and per-unit LED pattern (spec.md §4.3).
func (d *Device) Open() error {
	d.mu.Lock()
	switch d.state {
	case Opened:
		d.mu.Unlock()
		return ErrBusy
	case Disconnected:
		d.mu.Unlock()
		return ErrDisconnected
	}
	d.state = Opened
	d.input = reportSlot{}
	d.broadcastLocked()
	d.mu.Unlock()

	d.sendActivationAndLEDs(true)
	return nil
}

// Close transitions Opened -> Closed, issuing deactivation and an
// "all LEDs on" pattern first (spec.md §4.3).
func (d *Device) Close() error {
	d.mu.Lock()
	if d.state == Disconnected {
		d.mu.Unlock()
		return ErrDisconnected
	}
	if d.state != Opened {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	d.sendActivationAndLEDs(false)

	d.mu.Lock()
	d.state = Closed
	d.broadcastLocked()
	d.mu.Unlock()
	return nil
}

// allLEDsBitmap lights every LED (spec.md §4.3 close: "an all LEDs on
// pattern"). Device has no adapter-specific knowledge beyond "all four
// bits"; the bitmap's per-LED meaning belongs to the Capability.
const allLEDsBitmap byte = 0x0F

// Preadvertise sends the "off" activation report over the control
// channel before the device is advertised to the host (spec.md §5, S1
// ordering: the original announces itself on the already-connected control
// channel before the virtual HID device is ever created). Unlike Open/Close,
// it is not gated on the Closed/Opened state machine: it runs once, right
// after the control reader starts, before either transition is possible.
func (d *Device) Preadvertise() {
	d.setReportInternal(hidp.ReportTypeFeature, d.cap.ActivationReport(false))
}

// sendActivationAndLEDs performs the internal SET_REPORT(Feature) activation
// and SET_REPORT(Output) LED-pattern sequence issued on every Open/Close
// transition (spec.md §4.2, §5 "the first post-Open control-channel traffic
// is always the activation + LED setup"). Best-effort: errors disconnect the
// device via the control reader's own I/O-failure path, so they are not
// surfaced here.
func (d *Device) sendActivationAndLEDs(active bool) {
	d.setReportInternal(hidp.ReportTypeFeature, d.cap.ActivationReport(active))

	bitmap := ledBitmapForUnit(d.Unit)
	if !active {
		bitmap = allLEDsBitmap
	}
	for _, report := range d.cap.LEDReports(bitmap, false) {
		d.setReportInternal(hidp.ReportTypeOutput, report)
	}
}

func ledBitmapForUnit(unit int) byte {
	if unit < 0 {
		return 0
	}
	return 1 << uint(unit%4)
}

// Disconnect unconditionally moves the device to Disconnected and shuts
// both channels down for read+write (spec.md §4.3). park, when true, makes a
// best-effort attempt to send the Sixaxis "parked" (v=8) activation first
// (spec.md §7 "inactivity timeout... for Sixaxis, park").
func (d *Device) Disconnect(park bool) {
	d.mu.Lock()
	if d.state == Disconnected {
		d.mu.Unlock()
		return
	}
	d.state = Disconnected
	if d.query.kind != queryNone {
		d.query.cancelled = true
	}
	d.broadcastLocked()
	d.mu.Unlock()

	if park {
		d.setReportInternal(hidp.ReportTypeFeature, d.cap.ParkedReport())
	}

	d.shutdown(d.ctrl)
	d.shutdown(d.intr)
}

func (d *Device) shutdown(c Conn) {
	if c == nil {
		return
	}
	if s, ok := c.(Shutdowner); ok {
		_ = s.Shutdown()
		return
	}
	if closer, ok := c.(io.Closer); ok {
		_ = closer.Close()
	}
}

// WaitDisconnected blocks until the device reaches Disconnected.
func (d *Device) WaitDisconnected() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.state != Disconnected {
		d.waitLocked(waitQuantum)
	}
}

// RunInactivityTimer blocks until the device leaves Closed or timeout has
// elapsed since the call, whichever happens first; on timeout it
// disconnects the device with parking (spec.md §4.3 "Closed-state inactivity
// timeout"). timeout <= 0 disables the timer. Intended to be run in its own
// goroutine by the session worker immediately after construction.
func (d *Device) RunInactivityTimer(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	deadline := time.Now().Add(timeout)

	d.mu.Lock()
	for d.state == Closed {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			d.mu.Unlock()
			d.Disconnect(true)
			return
		}
		wait := remaining
		if wait > waitQuantum {
			wait = waitQuantum
		}
		d.waitLocked(wait)
	}
	d.mu.Unlock()
}

// Read implements the read(buffer, nonblock) operation (spec.md §4.3). buf
// == nil requests a length-only poll probe. nonblock makes an empty slot
// return (0, false, nil) immediately instead of waiting.
func (d *Device) Read(buf []byte, nonblock bool) (n int, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.state == Opened && !d.input.valid {
		if nonblock {
			return 0, false, nil
		}
		d.waitLocked(waitQuantum)
	}

	if d.state == Disconnected {
		return 0, false, ErrDisconnected
	}
	if !d.input.valid {
		// Closed with nothing buffered.
		return 0, false, nil
	}

	n = d.input.n
	if buf != nil {
		n = copy(buf, d.input.buf[:d.input.n])
		d.input.valid = false
	}
	return n, true, nil
}

// HasBufferedReport reports whether the latest-input slot currently holds a
// report, for the poll(read?) operation (spec.md §4.7).
func (d *Device) HasBufferedReport() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.input.valid
}

// Write implements the write(data) operation: an interrupt-channel DATA
// (output report) transaction (spec.md §4.3).
func (d *Device) Write(data []byte) error {
	d.mu.Lock()
	if d.state != Opened {
		d.mu.Unlock()
		return ErrDisconnected
	}
	intr := d.intr
	d.mu.Unlock()

	h := hidp.EncodeData(hidp.ReportTypeOutput)
	if err := hidp.WriteTransaction(intr, h, data); err != nil {
		d.raw.Log(true, "intr", d.Peer, byte(h), data)
		d.Disconnect(false)
		return ErrDisconnected
	}
	d.raw.Log(true, "intr", d.Peer, byte(h), data)
	return nil
}
