// Package blog provides the daemon's structured logger.
//
// Normal logs go to stdout, errors to stderr, so stderr can be redirected
// independently of -d diagnostics. A trace level below Debug backs the
// repeated -d flag.
package blog

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelTrace is enabled by passing -d more than once.
const LevelTrace slog.Level = -8

// MultiHandler fans a record out to every wrapped handler.
type MultiHandler struct{ hs []slog.Handler }

func NewMulti(hs ...slog.Handler) MultiHandler {
	return MultiHandler{hs: hs}
}

func (m MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.hs {
		_ = h.Handle(ctx, r)
	}
	return nil
}

func (m MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithAttrs(attrs)
	}
	return MultiHandler{hs: out}
}

func (m MultiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		out[i] = h.WithGroup(name)
	}
	return MultiHandler{hs: out}
}

// levelFilter delegates to h only for records that pass.
type levelFilter struct {
	pass func(slog.Level) bool
	h    slog.Handler
}

func (f levelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return f.pass(level) && f.h.Enabled(ctx, level)
}

func (f levelFilter) Handle(ctx context.Context, r slog.Record) error {
	if !f.pass(r.Level) {
		return nil
	}
	return f.h.Handle(ctx, r)
}

func (f levelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelFilter{pass: f.pass, h: f.h.WithAttrs(attrs)}
}

func (f levelFilter) WithGroup(name string) slog.Handler {
	return levelFilter{pass: f.pass, h: f.h.WithGroup(name)}
}

// Setup builds the daemon logger. verbosity is the repeat count of -d.
// Records below Error go to stdout and Error records to stderr; syslog
// output is added on top of this by SetupSyslog.
func Setup(verbosity int) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbosity >= 2:
		level = LevelTrace
	case verbosity == 1:
		level = slog.LevelDebug
	}

	stdout := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	stderr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})

	h := NewMulti(
		levelFilter{pass: func(l slog.Level) bool { return l < slog.LevelError }, h: stdout},
		levelFilter{pass: func(l slog.Level) bool { return l >= slog.LevelError }, h: stderr},
	)
	return slog.New(h)
}

// SetupSyslog behaves like Setup but additionally writes every record that
// passes the -d verbosity level to w (a syslog connection), errors and
// non-errors alike, matching spec.md §6's
// "diagnostics: syslog with a distinct tag; when -d is given the process
// stays in the foreground and also echoes to stderr".
func SetupSyslog(verbosity int, w io.Writer) *slog.Logger {
	base := Setup(verbosity)
	if w == nil {
		return base
	}
	level := slog.LevelInfo
	if verbosity >= 2 {
		level = LevelTrace
	} else if verbosity == 1 {
		level = slog.LevelDebug
	}
	sysHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewMulti(base.Handler(), sysHandler))
}
