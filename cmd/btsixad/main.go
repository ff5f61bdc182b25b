// Command btsixad bridges Bluetooth Sixaxis gamepads to the host HID stack
// (spec.md §1, §6).
package main

import (
	"fmt"
	"log/slog"
	"log/syslog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/btsixad/btsixad/chardev"
	"github.com/btsixad/btsixad/device"
	"github.com/btsixad/btsixad/internal/blog"
	"github.com/btsixad/btsixad/l2cap"
	"github.com/btsixad/btsixad/session"
	"github.com/btsixad/btsixad/sixaxis"
)

// cli mirrors spec.md §6: "btsixad [-a BDADDR] [-d] [-t TIMEOUT]".
type cli struct {
	Adapter string `short:"a" help:"Local adapter Bluetooth address (default: any)."`
	Diag    int    `short:"d" type:"counter" help:"Increase diagnostic verbosity (repeatable)."`
	Timeout int    `short:"t" default:"0" help:"Closed-state inactivity timeout in seconds; 0 disables."`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("btsixad"),
		kong.Description("Bridges Bluetooth Sixaxis gamepads to the host HID stack."),
		kong.UsageOnError(),
	)

	logger := buildLogger(c.Diag)
	raw := buildRawLogger(c.Diag)

	localAddr, err := l2cap.ParseAddr(c.Adapter)
	if err != nil {
		fatal(err)
	}

	ctrlListener, err := l2cap.Listen(localAddr, l2cap.PSMControl)
	if err != nil {
		fatal(err)
	}
	intrListener, err := l2cap.Listen(localAddr, l2cap.PSMInterrupt)
	if err != nil {
		fatal(err)
	}

	table := session.NewTable()
	units := session.NewUnitPool()
	pool := chardev.NewPool()
	timeout := time.Duration(c.Timeout) * time.Second

	go acceptLoop(ctrlListener, session.Control, table, units, pool, logger, raw, timeout)
	go acceptLoop(intrListener, session.Interrupt, table, units, pool, logger, raw, timeout)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctrlListener.Close()
	intrListener.Close()
	pool.Close()
	logger.Info("shutting down")
	os.Exit(0)
}

func buildLogger(diag int) *slog.Logger {
	w, err := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, "btsixad")
	if err != nil {
		return blog.Setup(diag)
	}
	return blog.SetupSyslog(diag, w)
}

func buildRawLogger(diag int) blog.RawLogger {
	if diag == 0 {
		return blog.NewRaw(nil, false)
	}
	return blog.NewRaw(os.Stdout, diag >= 2)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "btsixad:", err)
	os.Exit(1)
}

// acceptLoop runs one listener's accept loop (spec.md §4.6): every accepted
// socket is handed to the session table, and a table.Accept that completes
// a pairing spawns the session worker and the unit's character device.
func acceptLoop(
	l *l2cap.Listener,
	channel session.Channel,
	table *session.Table,
	units *session.UnitPool,
	pool *chardev.Pool,
	logger *slog.Logger,
	raw blog.RawLogger,
	timeout time.Duration,
) {
	for {
		conn, addr, err := l.Accept()
		if err != nil {
			logger.Error("accept failed", "error", err)
			return
		}
		peer := l2cap.FormatAddr(addr)

		ctrl, intr, ok, rejected := table.Accept(peer, channel, conn)
		if rejected {
			conn.Close()
			continue
		}
		if !ok {
			continue
		}

		spawnSession(peer, ctrl, intr, table, units, pool, logger, raw, timeout)
	}
}

func spawnSession(
	peer string,
	ctrl, intr *l2cap.Conn,
	table *session.Table,
	units *session.UnitPool,
	pool *chardev.Pool,
	logger *slog.Logger,
	raw blog.RawLogger,
	timeout time.Duration,
) {
	unit := units.Acquire()
	capa := sixaxis.NewAdapter()
	d := device.New(peer, unit, capa, ctrl, intr, logger, raw)
	worker := session.NewWorker(peer, unit, d, table, units, logger)

	name := fmt.Sprintf("btsixa%d", unit)
	adapter := chardev.New(name, unit, d)

	go d.RunControlReader()
	go func() {
		d.Preadvertise()
		runCharDevice(adapter, d, capa, pool, logger)
	}()
	go worker.RunRemaining(timeout)
}

func runCharDevice(adapter *chardev.Adapter, d *device.Device, capa sixaxis.Adapter, pool *chardev.Pool, logger *slog.Logger) {
	binding, err := chardev.OpenBinding(adapter.Name, capa.Descriptor().Bytes(), adapter, pool)
	if err != nil {
		logger.Error("uhid binding failed", "name", adapter.Name, "error", err)
		return
	}
	defer binding.Close()

	go binding.PumpInput(adapter, d)

	if err := binding.Run(); err != nil {
		logger.Debug("uhid binding closed", "name", adapter.Name, "error", err)
	}
}
