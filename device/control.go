package device

import (
	"github.com/btsixad/btsixad/hidp"
)

type queryKind int

const (
	queryNone queryKind = iota
	queryGet
	querySet
)

// Result mirrors the handshake/adapter-level result codes spec.md §4.4 and
// §4.7 describe: 0 is success, 1 is "not ready" (would-block at the adapter
// layer), any other low-nibble value is an "other" protocol error.
type Result int

const (
	resultPending Result = -1
)

const (
	ResultOK        Result = 0x0
	ResultNotReady  Result = 0x1
	ResultInvalidID Result = 0x2
	ResultInvalid   Result = 0x4
)

// controlQuery is the single in-flight control-query slot (spec.md §4.4).
// Guarded by Device.mu.
type controlQuery struct {
	kind       queryKind
	reportType hidp.ReportType
	dest       []byte
	written    int
	result     Result
	cancelled  bool
}

// waitForSlotLocked blocks until the control-query slot is free (kind ==
// queryNone) or the device disconnects. Called with mu held.
func (d *Device) waitForSlotLocked() error {
	for d.query.kind != queryNone {
		if d.state == Disconnected {
			return ErrDisconnected
		}
		d.waitLocked(waitQuantum)
	}
	return nil
}

// GetReport implements the get_report(kind, buf, size) operation (spec.md
// §4.4): installs a GET query, sends the GET_REPORT transaction, and waits
// for the matching reply. Returns the number of bytes copied into buf and
// the result code.
func (d *Device) GetReport(kind hidp.ReportType, buf []byte, size uint16, hasReportID bool, reportID byte) (int, Result, error) {
	d.mu.Lock()
	if err := d.waitForSlotLocked(); err != nil {
		d.mu.Unlock()
		return 0, 0, err
	}
	if d.state != Opened {
		d.mu.Unlock()
		return 0, 0, ErrDisconnected
	}
	d.query = controlQuery{kind: queryGet, reportType: kind, dest: buf, result: resultPending}
	ctrl := d.ctrl
	d.mu.Unlock()

	h, payload := hidp.EncodeGetReport(kind, hasReportID, reportID, size)
	if err := hidp.WriteTransaction(ctrl, h, payload); err != nil {
		d.raw.Log(true, "ctrl", d.Peer, byte(h), payload)
		d.clearQueryOnSendFailure()
		d.Disconnect(false)
		return 0, 0, ErrDisconnected
	}
	d.raw.Log(true, "ctrl", d.Peer, byte(h), payload)

	return d.waitQueryReply()
}

// SetReport implements the set_report(kind, data, size) operation.
func (d *Device) SetReport(kind hidp.ReportType, data []byte) (Result, error) {
	d.mu.Lock()
	if err := d.waitForSlotLocked(); err != nil {
		d.mu.Unlock()
		return 0, err
	}
	if d.state != Opened {
		d.mu.Unlock()
		return 0, ErrDisconnected
	}
	d.query = controlQuery{kind: querySet, reportType: kind, result: resultPending}
	ctrl := d.ctrl
	d.mu.Unlock()

	h, payload := hidp.EncodeSetReport(kind, data)
	if err := hidp.WriteTransaction(ctrl, h, payload); err != nil {
		d.raw.Log(true, "ctrl", d.Peer, byte(h), payload)
		d.clearQueryOnSendFailure()
		d.Disconnect(false)
		return 0, ErrDisconnected
	}
	d.raw.Log(true, "ctrl", d.Peer, byte(h), payload)

	_, result, err := d.waitQueryReply()
	return result, err
}

// setReportInternal issues the activation/LED SET_REPORT sequence used on
// Open/Close transitions. It respects the same arbitration slot as external
// callers but is best-effort: write failures are left for the control
// reader's own disconnect path, and it does not block past a disconnect.
func (d *Device) setReportInternal(kind hidp.ReportType, data []byte) {
	d.mu.Lock()
	if err := d.waitForSlotLocked(); err != nil {
		d.mu.Unlock()
		return
	}
	d.query = controlQuery{kind: querySet, reportType: kind, result: resultPending}
	ctrl := d.ctrl
	d.mu.Unlock()

	h, payload := hidp.EncodeSetReport(kind, data)
	if err := hidp.WriteTransaction(ctrl, h, payload); err != nil {
		d.raw.Log(true, "ctrl", d.Peer, byte(h), payload)
		d.clearQueryOnSendFailure()
		return
	}
	d.raw.Log(true, "ctrl", d.Peer, byte(h), payload)
	d.waitQueryReply()
}

func (d *Device) clearQueryOnSendFailure() {
	d.mu.Lock()
	d.query = controlQuery{}
	d.broadcastLocked()
	d.mu.Unlock()
}

// waitQueryReply blocks until the control reader completes the in-flight
// query (result != pending) or the device disconnects, then frees the slot.
func (d *Device) waitQueryReply() (int, Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for d.query.result == resultPending && d.state != Disconnected {
		d.waitLocked(waitQuantum)
	}
	if d.state == Disconnected && d.query.result == resultPending {
		d.query = controlQuery{}
		return 0, 0, ErrDisconnected
	}

	n, result := d.query.written, d.query.result
	d.query = controlQuery{}
	d.broadcastLocked()
	return n, result, nil
}

// CancelQuery marks the in-flight control query cancelled: the caller has
// given up (e.g. the character-device peer signalled cancel) without
// waiting for waitQueryReply to return. The control reader frees the slot
// on the next reply instead of writing into the now-absent caller's buffer
// (spec.md §4.4 "cancellation race").
func (d *Device) CancelQuery() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.query.kind != queryNone {
		d.query.cancelled = true
	}
}

// RunControlReader reads control-channel transactions until disconnect
// (spec.md §4.4). Intended to run in its own goroutine.
func (d *Device) RunControlReader() {
	scratch := make([]byte, hidp.MaxTransactionSize)
	for {
		d.mu.Lock()
		ctrl := d.ctrl
		state := d.state
		d.mu.Unlock()
		if state == Disconnected {
			return
		}

		h, payload, err := hidp.ReadTransaction(ctrl, scratch)
		if err != nil {
			d.Disconnect(false)
			return
		}
		d.raw.Log(false, "ctrl", d.Peer, byte(h), payload)

		switch h.Kind() {
		case hidp.KindHandshake:
			if !d.completeQuery(false, h.Low(), nil) {
				d.logger.Error("control: unexpected handshake, no query pending")
				d.Disconnect(false)
				return
			}
		case hidp.KindData:
			body := payload
			d.mu.Lock()
			queriedType := d.query.reportType
			d.mu.Unlock()
			if queriedType == hidp.ReportTypeInput {
				d.cap.FixupInput(body)
			}
			if !d.completeQuery(true, byte(ResultOK), body) {
				d.logger.Error("control: unexpected data reply, no query pending")
				d.Disconnect(false)
				return
			}
		case hidp.KindControl:
			if h.Low() == hidp.ControlOpVirtualCableUnplug {
				d.logger.Info("control: virtual cable unplug")
				d.Disconnect(false)
				return
			}
			// Other HID_CONTROL operations are silently ignored.
		default:
			d.logger.Error("control: protocol violation", "header", h)
			d.Disconnect(false)
			return
		}
	}
}

// completeQuery applies a reply to the in-flight query, if any. isData
// distinguishes a DATA reply (copies body into the caller buffer) from a
// HANDSHAKE reply (result only, no data). Returns false if no query was
// pending, which is a protocol violation.
func (d *Device) completeQuery(isData bool, resultLow byte, body []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.query.kind == queryNone {
		return false
	}
	if isData && d.query.kind != queryGet {
		return false
	}

	if d.query.cancelled {
		d.query = controlQuery{}
		d.broadcastLocked()
		return true
	}

	if isData {
		n := copy(d.query.dest, body)
		d.query.written = n
		d.query.result = ResultOK
	} else {
		d.query.result = Result(resultLow)
	}
	d.broadcastLocked()
	return true
}
