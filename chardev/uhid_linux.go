//go:build linux

package chardev

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/btsixad/btsixad/device"
	"golang.org/x/sys/unix"
)

// Linux uhid event types (include/uapi/linux/uhid.h). Only the subset this
// binding drives is named.
const (
	uhidCreate2         = 11
	uhidDestroy         = 1
	uhidStart           = 2
	uhidStop            = 3
	uhidOpen            = 4
	uhidClose           = 5
	uhidOutput          = 6
	uhidGetReport       = 9
	uhidGetReportReply  = 10
	uhidInput2          = 12
	uhidSetReport       = 13
	uhidSetReportReply  = 14
)

const (
	uhidDataMax   = 4096
	uhidEventSize = 4 + 276 + uhidDataMax // type + create2_req, the largest member

	// uhid_create2_req field offsets, relative to the body (after the
	// 4-byte type prefix).
	create2Name    = 0
	create2NameLen = 128
	create2Phys    = create2Name + create2NameLen
	create2PhysLen = 64
	create2Uniq    = create2Phys + create2PhysLen
	create2UniqLen = 64
	create2RDSize  = create2Uniq + create2UniqLen // u16
	create2Bus     = create2RDSize + 2            // u16
	create2Vendor  = create2Bus + 2               // u32
	create2Product = create2Vendor + 4            // u32
	create2Version = create2Product + 4           // u32
	create2Country = create2Version + 4           // u32
	create2RDData  = create2Country + 4

	// uhid_input2_req.
	input2Size = 0 // u16
	input2Data = 2

	// uhid_get_report_req (kernel -> us).
	getReportID    = 0 // u32
	getReportRNum  = 4 // u8
	getReportRType = 5 // u8

	// uhid_get_report_reply_req (us -> kernel).
	getReplyID   = 0 // u32
	getReplyErr  = 4 // u16
	getReplySize = 6 // u16
	getReplyData = 8

	// uhid_set_report_req (kernel -> us).
	setReportID    = 0 // u32
	setReportRNum  = 4 // u8
	setReportRType = 5 // u8
	setReportSize  = 6 // u16
	setReportData  = 8

	// uhid_set_report_reply_req (us -> kernel).
	setReplyID  = 0 // u32
	setReplyErr = 4 // u16

	// uhid_output_req (kernel -> us).
	outputData  = 0
	outputSize  = uhidDataMax // u16
	outputRType = outputSize + 2
)

// Binding is a character-device node bound to a real /dev/uhid instance
// (spec.md §4.7, §6: "externally arranged... to be symlinked as the
// conventional uhidN name"). The kernel delivers open/close/get-report/
// set-report upcalls as events on the fd; Binding translates each into an
// Adapter call, submitted through a shared Pool so a burst of upcalls
// across many units never spawns unbounded goroutines.
type Binding struct {
	f       *os.File
	adapter *Adapter
	pool    *Pool
}

// OpenBinding creates the kernel-side HID device: it opens /dev/uhid and
// writes a UHID_CREATE2 event carrying name and the descriptor bytes.
func OpenBinding(name string, descriptor []byte, adapter *Adapter, pool *Pool) (*Binding, error) {
	if len(descriptor) > uhidDataMax {
		return nil, fmt.Errorf("chardev: descriptor too large (%d > %d)", len(descriptor), uhidDataMax)
	}

	f, err := os.OpenFile("/dev/uhid", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("chardev: open /dev/uhid: %w", err)
	}

	b := &Binding{f: f, adapter: adapter, pool: pool}

	body := make([]byte, uhidEventSize-4)
	copy(body[create2Name:create2Name+create2NameLen], name)
	binary.LittleEndian.PutUint16(body[create2RDSize:], uint16(len(descriptor)))
	binary.LittleEndian.PutUint16(body[create2Bus:], 0x0005) // BUS_BLUETOOTH
	copy(body[create2RDData:], descriptor)

	if err := b.writeEvent(uhidCreate2, body); err != nil {
		f.Close()
		return nil, fmt.Errorf("chardev: create2: %w", err)
	}
	return b, nil
}

// Run reads kernel events until /dev/uhid is closed or returns an
// unrecoverable error. Intended to run in its own goroutine, one per unit.
func (b *Binding) Run() error {
	buf := make([]byte, uhidEventSize)
	for {
		n, err := b.f.Read(buf)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return err
		}
		if n < 4 {
			continue
		}
		kind := binary.LittleEndian.Uint32(buf[0:4])
		body := append([]byte(nil), buf[4:n]...)
		b.dispatch(kind, body)
	}
}

func (b *Binding) dispatch(kind uint32, body []byte) {
	switch kind {
	case uhidOpen:
		b.pool.Submit(func() { _ = b.adapter.Open() })
	case uhidClose:
		b.pool.Submit(func() { _ = b.adapter.Close() })
	case uhidStart, uhidStop:
		// No action: these bracket driver bind/unbind, not open/close.
	case uhidOutput:
		b.pool.Submit(func() {
			if len(body) < outputRType+1 {
				return
			}
			size := int(binary.LittleEndian.Uint16(body[outputSize:]))
			if size > uhidDataMax {
				size = uhidDataMax
			}
			data := append([]byte(nil), body[outputData:outputData+size]...)
			_ = b.adapter.Write(data)
		})
	case uhidGetReport:
		b.pool.Submit(func() { b.handleGetReport(body) })
	case uhidSetReport:
		b.pool.Submit(func() { b.handleSetReport(body) })
	}
}

func (b *Binding) handleGetReport(body []byte) {
	if len(body) < getReportRType+1 {
		return
	}
	id := binary.LittleEndian.Uint32(body[getReportID:])
	rtype := body[getReportRType]

	buf := make([]byte, uhidDataMax)
	n, err := b.adapter.GetReport(int(rtype), buf, uint16(len(buf)))

	reply := make([]byte, uhidEventSize-4)
	binary.LittleEndian.PutUint32(reply[getReplyID:], id)
	if err != nil {
		binary.LittleEndian.PutUint16(reply[getReplyErr:], 1)
	} else {
		binary.LittleEndian.PutUint16(reply[getReplySize:], uint16(n))
		copy(reply[getReplyData:], buf[:n])
	}
	_ = b.writeEvent(uhidGetReportReply, reply)
}

func (b *Binding) handleSetReport(body []byte) {
	if len(body) < setReportData {
		return
	}
	id := binary.LittleEndian.Uint32(body[setReportID:])
	rtype := body[setReportRType]
	size := int(binary.LittleEndian.Uint16(body[setReportSize:]))
	if size > uhidDataMax {
		size = uhidDataMax
	}
	data := append([]byte(nil), body[setReportData:setReportData+size]...)

	err := b.adapter.SetReport(int(rtype), data)

	reply := make([]byte, uhidEventSize-4)
	binary.LittleEndian.PutUint32(reply[setReplyID:], id)
	if err != nil {
		binary.LittleEndian.PutUint16(reply[setReplyErr:], 1)
	}
	_ = b.writeEvent(uhidSetReportReply, reply)
}

// PumpInput bridges the device's latest-input slot to the kernel: while the
// device is Opened it drains adapter.Read and republishes every report via
// PushInput, replacing the spec's external "peer calls read()" with an
// internal pump suited to uhid's push-based UHID_INPUT2 delivery. While the
// device is Closed it re-checks the state every 100ms. It returns once the
// device disconnects. Intended to run in its own goroutine, started as soon
// as the binding is created.
func (b *Binding) PumpInput(a *Adapter, d *device.Device) {
	buf := make([]byte, uhidDataMax)
	for {
		switch d.State() {
		case device.Disconnected:
			return
		case device.Opened:
			n, err := a.Read(buf, false)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			if err := b.PushInput(buf[:n]); err != nil {
				return
			}
		default:
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// PushInput proactively delivers an input report to the kernel (UHID_INPUT2),
// the counterpart of the daemon's own interrupt-channel reads.
func (b *Binding) PushInput(report []byte) error {
	if len(report) > uhidDataMax {
		report = report[:uhidDataMax]
	}
	body := make([]byte, uhidEventSize-4)
	binary.LittleEndian.PutUint16(body[input2Size:], uint16(len(report)))
	copy(body[input2Data:], report)
	return b.writeEvent(uhidInput2, body)
}

func (b *Binding) writeEvent(kind uint32, body []byte) error {
	buf := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], kind)
	copy(buf[4:], body)
	_, err := b.f.Write(buf)
	return err
}

// Close destroys the kernel-side HID device.
func (b *Binding) Close() error {
	_ = b.writeEvent(uhidDestroy, nil)
	return b.f.Close()
}
