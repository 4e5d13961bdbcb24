package actionlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Logger records operator actions. Implementations must not fail the
// caller: write errors are swallowed.
type Logger interface {
	Action(action, name string, ok bool, err error)
	Batch(action string, total, success int)
	Scan(source string, count int, err error)
}

type nop struct{}

func (nop) Action(string, string, bool, error) {}
func (nop) Batch(string, int, int)             {}
func (nop) Scan(string, int, error)            {}

// Nop returns a logger that drops every record.
func Nop() Logger { return nop{} }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nop{}
	}
	return l
}

// SlogLogger writes structured action records through log/slog.
type SlogLogger struct {
	log    *slog.Logger
	closer io.Closer
	path   string
}

// New wraps an arbitrary writer; used by tests and by Open.
func New(w io.Writer, level slog.Level) *SlogLogger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{log: slog.New(h)}
}

// Open appends to logs/deepboot_YYYYMMDD.log under dir.
func Open(dir string, level slog.Level) (*SlogLogger, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("deepboot_%s.log", time.Now().Format("20060102")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(f, level)
	l.closer = f
	l.path = path
	return l, nil
}

// Path returns the log file path, empty for writer-backed loggers.
func (l *SlogLogger) Path() string { return l.path }

// Close releases the underlying file, if any.
func (l *SlogLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *SlogLogger) Action(action, name string, ok bool, err error) {
	if ok {
		l.log.Info("action", "action", action, "entry", name, "status", "SUCCESS")
		return
	}
	attrs := []any{"action", action, "entry", name, "status", "FAILED"}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	l.log.Warn("action", attrs...)
}

func (l *SlogLogger) Batch(action string, total, success int) {
	l.log.Info("batch", "action", action, "total", total, "successful", success, "failed", total-success)
}

func (l *SlogLogger) Scan(source string, count int, err error) {
	if err != nil {
		l.log.Warn("scan", "source", source, "error", err.Error())
		return
	}
	l.log.Info("scan", "source", source, "found", count)
}

// ParseLevel maps config strings onto slog levels; unknown values fall back
// to info.
func ParseLevel(raw string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
