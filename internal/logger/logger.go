package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a leveled logger for engine components backed by zerolog
type Logger struct {
	zl      zerolog.Logger
	logFile *os.File
	logPath string
	mu      *sync.Mutex
	name    string
}

// Format selects the output encoding
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// New creates a logger that writes to w at the given level ("debug", "info", "warn", "error")
func New(w io.Writer, level string, format Format) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &Logger{zl: zl, mu: &sync.Mutex{}}, nil
}

// NewFileLogger creates a JSON logger writing to <dir>/<name>_<date>.log
func NewFileLogger(dir, name, level string) (*Logger, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", name, time.Now().Format("2006-01-02"))
	logPath := filepath.Join(dir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l, err := New(file, level, FormatJSON)
	if err != nil {
		file.Close()
		return nil, err
	}
	l.logFile = file
	l.logPath = logPath
	l.name = name

	l.zl.Info().Str("session", name).Str("log_file", filename).Msg("session started")
	return l, nil
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), mu: &sync.Mutex{}}
}

// OrNop returns l, or a discarding logger when l is nil
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// ParseLevel maps a level name to a zerolog level; empty means info
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// With returns a child logger tagged with a component name
func (l *Logger) With(component string) *Logger {
	return &Logger{
		zl:      l.zl.With().Str("component", component).Logger(),
		logFile: l.logFile,
		logPath: l.logPath,
		mu:      l.mu,
		name:    l.name,
	}
}

// Zerolog exposes the underlying logger for structured fields
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// LogError logs an error with context
func (l *Logger) LogError(context string, err error) {
	l.zl.Error().Err(err).Str("context", context).Msg("operation failed")
}

// LogWarning logs a warning with context
func (l *Logger) LogWarning(context, format string, args ...interface{}) {
	l.zl.Warn().Str("context", context).Msgf(format, args...)
}

// Close writes a session footer and closes the log file, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}
	l.zl.Info().Str("session", l.name).Msg("session ended")
	err := l.logFile.Close()
	l.logFile = nil
	return err
}

// GetLogPath returns the current log file path, empty for stream loggers
func (l *Logger) GetLogPath() string {
	return l.logPath
}
