package device

import "github.com/btsixad/btsixad/hidp"

// RunInterruptReader reads interrupt-channel transactions until disconnect
// (spec.md §4.5). Only DATA/input-report transactions (header 0xA1) are
// accepted; anything else is a protocol violation. Intended to run in its
// own goroutine.
func (d *Device) RunInterruptReader() {
	scratch := make([]byte, hidp.MaxTransactionSize)
	for {
		d.mu.Lock()
		intr := d.intr
		state := d.state
		d.mu.Unlock()
		if state == Disconnected {
			return
		}

		h, payload, err := hidp.ReadTransaction(intr, scratch)
		if err != nil {
			d.Disconnect(false)
			return
		}
		d.raw.Log(false, "intr", d.Peer, byte(h), payload)

		if h.Kind() != hidp.KindData || hidp.ReportType(h.Low()) != hidp.ReportTypeInput {
			d.logger.Error("interrupt: protocol violation", "header", h)
			d.Disconnect(false)
			return
		}

		d.cap.FixupInput(payload)
		d.deliverInput(payload)
	}
}

// deliverInput implements the single-slot latest-value buffer (spec.md §3,
// §4.5): if Opened, the payload overwrites the slot and every waiter is woken;
// only the first reader to take the lock finds the report, the others go back
// to waiting. If Closed or Disconnected, the report is dropped.
func (d *Device) deliverInput(payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Opened {
		return
	}
	n := copy(d.input.buf[:], payload)
	d.input.n = n
	d.input.valid = true
	d.broadcastLocked()
}
