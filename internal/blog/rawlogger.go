package blog

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// RawLogger emits a transaction summary line (direction, channel, header,
// length, hex payload) under a shared lock so lines from concurrently
// logging devices are never interleaved (spec.md §4.1).
type RawLogger interface {
	// Log records one L2CAP transaction. send is true for daemon->peer
	// traffic, false for peer->daemon. channel is "ctrl" or "intr".
	Log(send bool, channel string, peer string, header byte, payload []byte)
}

type rawLogger struct {
	w        io.Writer
	mu       sync.Mutex
	verbose  bool
	seenOnce map[string]bool
}

// NewRaw returns a RawLogger writing to w. If w is nil, Log is a no-op.
// When verbose is false, only the first send and first receive per peer and
// channel are printed (spec.md §4.1: "At low verbosity, only the first
// send/receive per direction is printed").
func NewRaw(w io.Writer, verbose bool) RawLogger {
	return &rawLogger{w: w, verbose: verbose, seenOnce: make(map[string]bool)}
}

func (r *rawLogger) Log(send bool, channel string, peer string, header byte, payload []byte) {
	if r.w == nil {
		return
	}

	dir := "recv"
	if send {
		dir = "send"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.verbose {
		key := peer + "|" + channel + "|" + dir
		if r.seenOnce[key] {
			return
		}
		r.seenOnce[key] = true
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range payload {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s peer=%s header=%02x len=%d hex=[%s]\n",
		dir, channel, peer, header, len(payload), hexbuf.String())
	_, _ = r.w.Write([]byte(line))
}
