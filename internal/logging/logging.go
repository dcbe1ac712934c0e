// Package logging holds the engine-wide logger. Logging is silent unless the
// embedding application installs a logger with SetLogger.
package logging

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(nopHandler{}))
}

// SetLogger installs the logger used by the engine. Passing nil restores the
// silent default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	logger.Store(l)
}

// Logger returns the currently installed logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// nopHandler discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var (
	onceMu   sync.Mutex
	onceSeen = make(map[uintptr]struct{})
)

// WarnOnce logs a warning at most once per calling site. Repeated hits from
// the same program counter are suppressed so a hot per-frame path cannot
// flood the log.
func WarnOnce(msg string, args ...any) {
	pc, _, _, ok := runtime.Caller(1)
	if ok {
		onceMu.Lock()
		_, seen := onceSeen[pc]
		if !seen {
			onceSeen[pc] = struct{}{}
		}
		onceMu.Unlock()
		if seen {
			return
		}
	}
	Logger().Warn(msg, args...)
}

// ResetWarnOnce clears the suppression table. Intended for tests and for
// applications that rebuild the graphics context after device loss.
func ResetWarnOnce() {
	onceMu.Lock()
	onceSeen = make(map[uintptr]struct{})
	onceMu.Unlock()
}
