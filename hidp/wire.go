// Package hidp implements the HID-over-L2CAP wire framing and the
// GET_REPORT/SET_REPORT/HANDSHAKE control-channel transaction encoding
// (spec.md §4.1, §4.4). It has no knowledge of sockets or of Sixaxis; it
// only turns bytes on the wire into typed transactions and back.
package hidp

import (
	"errors"
	"io"
)

// MaxTransactionSize bounds a single HID-over-L2CAP transaction (header +
// payload). Reports never exceed this; it also bounds the device's
// latest-input slot (spec.md §3: "a single report buffer of bounded
// capacity (≤ 1024 bytes)").
const MaxTransactionSize = 1024

// ErrDisconnected is returned by ReadTransaction on a zero-length read (peer
// closed) and by WriteTransaction on a short or failed write.
var ErrDisconnected = errors.New("hidp: peer disconnected")

// Transaction kinds: the high nibble of the header byte.
const (
	KindHandshake = 0x0
	KindControl   = 0x1
	KindGetReport = 0x4
	KindSetReport = 0x5
	KindData      = 0xA
)

// HID_CONTROL operations (low nibble when Kind == KindControl).
const (
	ControlOpVirtualCableUnplug = 0x5
)

// Report types, used as the low nibble on GET_REPORT/SET_REPORT/DATA.
type ReportType byte

const (
	ReportTypeInput   ReportType = 1
	ReportTypeOutput  ReportType = 2
	ReportTypeFeature ReportType = 3
)

func (t ReportType) Valid() bool {
	return t == ReportTypeInput || t == ReportTypeOutput || t == ReportTypeFeature
}

// Handshake result codes (low nibble on a KindHandshake header).
const (
	HandshakeOK          = 0x0
	HandshakeNotReady    = 0x1
	HandshakeInvalidID   = 0x2
	HandshakeInvalidParm = 0x4
)

// Header is a single HID-over-L2CAP transaction header byte.
type Header byte

func MakeHeader(kind byte, low byte) Header {
	return Header((kind << 4) | (low & 0x0f))
}

func (h Header) Kind() byte { return byte(h) >> 4 }
func (h Header) Low() byte  { return byte(h) & 0x0f }

// EncodeGetReport builds the header and payload for a GET_REPORT request
// (spec.md §4.4): header 0x48|kind; payload [id, size_lo, size_hi] if the
// descriptor declares report IDs, else [size_lo, size_hi].
func EncodeGetReport(kind ReportType, hasReportID bool, reportID byte, size uint16) (Header, []byte) {
	h := MakeHeader(KindGetReport, 0x08|byte(kind)) // 0x08: a size field follows
	var payload []byte
	if hasReportID {
		payload = []byte{reportID, byte(size), byte(size >> 8)}
	} else {
		payload = []byte{byte(size), byte(size >> 8)}
	}
	return h, payload
}

// EncodeSetReport builds the header and payload for a SET_REPORT request:
// header 0x50|kind, payload is the report body verbatim.
func EncodeSetReport(kind ReportType, body []byte) (Header, []byte) {
	return MakeHeader(KindSetReport, byte(kind)), body
}

// EncodeHandshake builds a HANDSHAKE reply header carrying result in its low
// nibble.
func EncodeHandshake(result byte) Header {
	return MakeHeader(KindHandshake, result)
}

// EncodeData builds a DATA reply header (kind in the low nibble) used to
// answer GET_REPORT, and to deliver interrupt-channel input reports
// (header 0xA1 is KindData with ReportTypeInput).
func EncodeData(kind ReportType) Header {
	return MakeHeader(KindData, byte(kind))
}

// EncodeVirtualCableUnplug builds the HID_CONTROL/VIRTUAL_CABLE_UNPLUG
// header (no payload).
func EncodeVirtualCableUnplug() Header {
	return MakeHeader(KindControl, ControlOpVirtualCableUnplug)
}

// WriteTransaction emits header and payload as a single write so that a
// sequenced-packet socket carries them as exactly one datagram (spec.md
// §4.1: "the sender emits header and payload as a single scatter/gather
// write"). net.Buffers.WriteTo only collapses multiple buffers into one
// underlying write for connection types that implement the writev fast
// path; building one buffer here makes the single-write guarantee hold
// regardless of the concrete Writer. Any write error, or a short write, is
// reported as ErrDisconnected rather than propagated verbatim, since a
// SIGPIPE/EPIPE on a peer-closed interrupt or control socket must become a
// graceful disconnect (spec.md §5 "Interrupted I/O").
func WriteTransaction(w io.Writer, h Header, payload []byte) error {
	buf := make([]byte, 1+len(payload))
	buf[0] = byte(h)
	copy(buf[1:], payload)

	n, err := w.Write(buf)
	if err != nil || n != len(buf) {
		return ErrDisconnected
	}
	return nil
}

// ReadTransaction reads exactly one HID transaction from r into scratch,
// which must be at least MaxTransactionSize bytes. Because the underlying
// transport is a sequenced-packet socket, one Read call yields exactly one
// transaction; a zero-length read means the peer closed its end
// (spec.md §4.1: "A zero-length read is treated as peer close").
func ReadTransaction(r io.Reader, scratch []byte) (Header, []byte, error) {
	for {
		n, err := r.Read(scratch)
		if err != nil {
			if isRetryable(err) {
				continue
			}
			return 0, nil, ErrDisconnected
		}
		if n == 0 {
			return 0, nil, ErrDisconnected
		}
		return Header(scratch[0]), scratch[1:n], nil
	}
}

func isRetryable(err error) bool {
	var sysErr interface{ Temporary() bool }
	if errors.As(err, &sysErr) {
		return sysErr.Temporary()
	}
	return false
}
