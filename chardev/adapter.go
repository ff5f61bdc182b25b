// Package chardev translates file-style operations from an opaque user
// peer into device operations (spec.md §4.7). It is transport-agnostic: the
// concrete binding to Linux's /dev/uhid lives in uhid_linux.go, but Adapter
// itself only knows about *device.Device.
package chardev

import (
	"errors"

	"github.com/btsixad/btsixad/device"
	"github.com/btsixad/btsixad/hidp"
)

// Adapter-level errors (spec.md §4.7, §7).
var (
	ErrBusy         = errors.New("chardev: busy")
	ErrWouldBlock   = errors.New("chardev: would block")
	ErrInvalid      = errors.New("chardev: invalid")
	ErrDisconnected = errors.New("chardev: disconnected")
)

// Ioctl commands (spec.md §4.7).
type Ioctl int

const (
	IoctlGetReportID Ioctl = iota
	IoctlGetDescriptor
	IoctlGetReport
	IoctlSetReport
)

// Adapter is one character-device node's worth of translation logic: it
// owns the unit's name and the underlying Device, and maps file operations
// onto it.
type Adapter struct {
	Name string // "btsixa<N>"
	Unit int

	d *device.Device
}

// New builds the adapter for an already-constructed device.
func New(name string, unit int, d *device.Device) *Adapter {
	return &Adapter{Name: name, Unit: unit, d: d}
}

// Open maps to device open; "busy" if the device is already Opened
// (spec.md §4.7).
func (a *Adapter) Open() error {
	err := a.d.Open()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, device.ErrBusy):
		return ErrBusy
	default:
		return ErrDisconnected
	}
}

// Close maps to device close.
func (a *Adapter) Close() error {
	if err := a.d.Close(); err != nil {
		return ErrDisconnected
	}
	return nil
}

// Read allocates nothing itself; it copies into the caller-provided buffer
// (bounded by the caller, per spec.md §4.7 "allocate bounded buffer"). A
// disconnected device reads as EOF (n=0, err=nil); a non-blocking read of an
// empty slot returns ErrWouldBlock.
func (a *Adapter) Read(buf []byte, nonblock bool) (int, error) {
	n, ok, err := a.d.Read(buf, nonblock)
	if err != nil {
		return 0, nil // disconnected -> EOF
	}
	if !ok {
		if nonblock {
			return 0, ErrWouldBlock
		}
		return 0, nil
	}
	return n, nil
}

// Write copies data in, then issues a device write. A failure (disconnect)
// is reported as "invalid" rather than propagated, per spec.md §4.7
// "write(len) -> copy-in then device write; disconnect on failure is
// reported as invalid".
func (a *Adapter) Write(data []byte) error {
	if err := a.d.Write(data); err != nil {
		return ErrInvalid
	}
	return nil
}

// Poll implements poll(read?, write?): write is always ready; read is ready
// when a buffered report exists or the device has disconnected (spec.md
// §4.7).
func (a *Adapter) Poll() (readReady, writeReady bool) {
	writeReady = true
	readReady = a.d.HasBufferedReport() || a.d.State() == device.Disconnected
	return readReady, writeReady
}

// GetReportID implements the get-report-id ioctl: the descriptor's first
// report ID, or 0 if the descriptor is ID-less (spec.md §4.7).
func (a *Adapter) GetReportID() byte {
	return a.d.Descriptor().FirstReportID()
}

// GetDescriptor implements the get-descriptor ioctl: it copies descriptor
// bytes up to maxlen into dst and reports the descriptor's true length
// regardless of how much was copied (spec.md §4.7).
func (a *Adapter) GetDescriptor(dst []byte) (copied int, total int) {
	bytes := a.d.Descriptor().Bytes()
	return copy(dst, bytes), len(bytes)
}

// GetReport implements the get-report ioctl: validates kind, calls the
// control protocol, and translates the result (spec.md §4.7).
func (a *Adapter) GetReport(kind int, buf []byte, size uint16) (int, error) {
	rt, err := validReportType(kind)
	if err != nil {
		return 0, err
	}
	n, result, devErr := a.d.GetReport(rt, buf, size, a.d.Descriptor().FirstReportID() != 0, a.d.Descriptor().FirstReportID())
	if devErr != nil {
		return 0, ErrDisconnected
	}
	return n, mapResult(result)
}

// SetReport implements the set-report ioctl.
func (a *Adapter) SetReport(kind int, data []byte) error {
	rt, err := validReportType(kind)
	if err != nil {
		return err
	}
	result, devErr := a.d.SetReport(rt, data)
	if devErr != nil {
		return ErrDisconnected
	}
	return mapResult(result)
}

// CancelPending lets the character-device peer signal that it no longer
// awaits a reply to an in-flight ioctl (spec.md §4.4 "cancellation race").
func (a *Adapter) CancelPending() {
	a.d.CancelQuery()
}

func validReportType(kind int) (hidp.ReportType, error) {
	rt := hidp.ReportType(kind)
	if !rt.Valid() {
		return 0, ErrInvalid
	}
	return rt, nil
}

// mapResult translates a control-protocol result code to an adapter-level
// error (spec.md §4.7: "0->ok, 1->would-block, positive-other->invalid").
// A transport failure is surfaced by the caller as ErrDisconnected before
// mapResult is ever consulted, so the "negative->other" case never reaches
// here as a Result.
func mapResult(result device.Result) error {
	switch result {
	case device.ResultOK:
		return nil
	case device.ResultNotReady:
		return ErrWouldBlock
	default:
		return ErrInvalid
	}
}
