// Package logger sets up the tracker's rotating JSON log.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file written inside the logs directory.
const FileName = "oxy-tracker.slog"

// Logger is a slog.Logger writing JSON records to a size-rotated file.
// A nil *Logger is valid: debug and info records are dropped, warnings and errors
// go to the default slog logger.
type Logger struct {
	*slog.Logger
	LogFile string
	LogDir  string
	Start   time.Time

	w *lumberjack.Logger
}

// ParseLevel maps "debug", "info", "warn" and "error" (any case) to a slog level.
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - slog.Level: the level; info for unknown names
//   - error: if the name is not recognized
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%s: invalid log level", level)
}

// New creates a Logger writing to dir/oxy-tracker.slog.
//
// Parameters:
//   - level: the minimum level; unknown names log at info
//   - dir: the logs directory; empty means the current directory
//
// Returns:
//   - *Logger: the logger
func New(level string, dir string) *Logger {
	if dir == "" {
		dir = "."
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    32, // MB
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}
	if level == "debug" {
		w.MaxSize = 256
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	l := &Logger{
		Logger:  slog.New(h),
		LogFile: w.Filename,
		LogDir:  dir,
		Start:   time.Now(),
		w:       w,
	}

	l.Info("Hello logging", slog.Time("start", l.Start))
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	return l
}

// Slog returns the underlying slog.Logger for components that take one.
// A nil Logger returns slog.Default().
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l *Logger) Debugf(msg string, args ...any) {
	if l != nil {
		l.Logger.Debug(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	if l != nil {
		l.Logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Warnf(msg string, args ...any) {
	l.Slog().Warn(fmt.Sprintf(msg, args...))
}

func (l *Logger) Errorf(msg string, args ...any) {
	l.Slog().Error(fmt.Sprintf(msg, args...))
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		LogDir:  l.LogDir,
		Start:   l.Start,
		w:       l.w,
	}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}
