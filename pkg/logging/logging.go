package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SlogLevel maps the level onto log/slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a config string ("debug", "info", ...) into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// LogEntry is the structured log entry passed to the dashboard.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

type state struct {
	logger       *slog.Logger
	level        LogLevel
	entries      chan LogEntry
	dashboard    bool
	droppedCount atomic.Int64
}

var (
	mu      sync.RWMutex
	current *state
)

const dashboardChannelBufferSize = 2048

// InitForDashboard routes log entries to a buffered channel that the
// dashboard drains. Entries below filterLevel are discarded.
func InitForDashboard(filterLevel LogLevel) <-chan LogEntry {
	return initCommon(true, filterLevel, os.Stderr, dashboardChannelBufferSize)
}

// InitForCLI writes logs as text to output.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	initCommon(false, filterLevel, output, 0)
}

func initCommon(dashboard bool, level LogLevel, output io.Writer, bufferSize int) <-chan LogEntry {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	s := &state{
		logger:    slog.New(slog.NewTextHandler(output, opts)),
		level:     level,
		dashboard: dashboard,
	}
	if dashboard {
		s.entries = make(chan LogEntry, bufferSize)
	}

	mu.Lock()
	current = s
	mu.Unlock()

	slog.SetDefault(s.logger)
	return s.entries
}

// Dropped returns how many dashboard entries were discarded because the
// channel buffer was full.
func Dropped() int64 {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return 0
	}
	return current.droppedCount.Load()
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	s := current

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	if s == nil {
		// Not initialized yet; keep library use quiet below warnings.
		if level >= LevelWarn {
			fmt.Fprintf(os.Stderr, "%s [%s] %s: %s\n", time.Now().Format(time.RFC3339), level, subsystem, msg)
		}
		return
	}
	if level < s.level {
		return
	}

	if s.dashboard {
		entry := LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		}
		select {
		case s.entries <- entry:
		default:
			s.droppedCount.Add(1)
		}
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// CloseDashboardChannel closes the dashboard log channel. Call on shutdown,
// after which logging falls back to stderr.
func CloseDashboardChannel() {
	mu.Lock()
	defer mu.Unlock()
	if current != nil && current.entries != nil {
		close(current.entries)
		current = nil
	}
}
