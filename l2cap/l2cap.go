// Package l2cap binds the daemon to real Bluetooth L2CAP sockets
// (AF_BLUETOOTH / BTPROTO_L2CAP, SOCK_SEQPACKET), on the fixed control and
// interrupt PSMs HID-over-L2CAP uses (spec.md §4.1, §6). A sequenced-packet
// socket preserves message boundaries, so one Read call always returns
// exactly one HID transaction and one Write call always emits exactly one
// (hidp.ReadTransaction/WriteTransaction rely on this).
package l2cap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PSM is a fixed HID-over-L2CAP protocol/service multiplexer.
const (
	PSMControl   uint16 = 0x11
	PSMInterrupt uint16 = 0x13
)

// listenBacklog is the accept backlog for both listening sockets
// (spec.md §6: "listen backlog 10").
const listenBacklog = 10

// ParseAddr parses a colon-separated Bluetooth device address
// ("AA:BB:CC:DD:EE:FF") into six bytes in written order (addr[0] is the
// first octet), the order unix.SockaddrL2.Addr takes; the unix package
// reverses it into the kernel's byte order (spec.md §6: "bound to a
// configurable local adapter address").
func ParseAddr(s string) ([6]byte, error) {
	var addr [6]byte
	if s == "" {
		return addr, nil // BDADDR_ANY
	}
	n, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x",
		&addr[0], &addr[1], &addr[2], &addr[3], &addr[4], &addr[5])
	if err != nil || n != 6 {
		return addr, fmt.Errorf("l2cap: invalid device address %q", s)
	}
	return addr, nil
}

// FormatAddr renders a six-byte Bluetooth device address in the
// conventional colon-separated form.
func FormatAddr(addr [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[0], addr[1], addr[2], addr[3], addr[4], addr[5])
}

// Listener accepts incoming L2CAP connections on one PSM.
type Listener struct {
	fd  int
	psm uint16
}

// Listen binds and listens on psm, on the given local adapter address
// (the all-zero address means any adapter / BDADDR_ANY).
func Listen(localAddr [6]byte, psm uint16) (*Listener, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_SEQPACKET, unix.BTPROTO_L2CAP)
	if err != nil {
		return nil, fmt.Errorf("l2cap: socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrL2{PSM: psm, Addr: localAddr}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("l2cap: bind psm 0x%02x: %w", psm, err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("l2cap: listen psm 0x%02x: %w", psm, err)
	}
	return &Listener{fd: fd, psm: psm}, nil
}

// Accept blocks for the next incoming connection and returns its peer
// address alongside the established Conn.
func (l *Listener) Accept() (*Conn, [6]byte, error) {
	for {
		nfd, sa, err := unix.Accept(l.fd)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, [6]byte{}, fmt.Errorf("l2cap: accept psm 0x%02x: %w", l.psm, err)
		}
		l2sa, ok := sa.(*unix.SockaddrL2)
		if !ok {
			unix.Close(nfd)
			return nil, [6]byte{}, fmt.Errorf("l2cap: accept psm 0x%02x: unexpected sockaddr type %T", l.psm, sa)
		}
		return &Conn{fd: nfd}, l2sa.Addr, nil
	}
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

// Conn is one connected L2CAP socket. It implements device.Conn (plain
// io.Reader/io.Writer) and device.Shutdowner structurally, without either
// package importing the other.
type Conn struct {
	fd int
}

func (c *Conn) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return n, err
		}
		return n, nil
	}
}

// Shutdown shuts the socket down for read and write without closing the
// descriptor, so a concurrent reader blocked in Read observes EOF instead
// of the fd number being silently reused (spec.md §4.3 "disconnect").
func (c *Conn) Shutdown() error {
	return unix.Shutdown(c.fd, unix.SHUT_RDWR)
}

func (c *Conn) Close() error {
	return unix.Close(c.fd)
}
