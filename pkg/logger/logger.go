package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/killallgit/tessera/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a component-scoped structured logger
type Logger struct {
	component string
	base      *zap.SugaredLogger
	closer    io.Closer
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(&Logger{base: zap.NewNop().Sugar()})
}

// Init replaces the package default with a file logger built from cfg
func Init(cfg config.LoggingConfig) error {
	l, err := New(cfg.Level, cfg.LogFile, cfg.Preserve)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if prev := defaultLogger.Swap(l); prev != nil {
		_ = prev.Close()
	}
	return nil
}

// New creates a Logger writing JSON lines to logFile.
// The file is truncated unless preserve is set.
func New(level, logFile string, preserve bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if preserve {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(logFile, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWithWriter(file, level)
	l.closer = file
	return l, nil
}

// NewWithWriter creates a Logger writing JSON lines to w
func NewWithWriter(w io.Writer, level string) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		parseLevel(level),
	)
	return &Logger{base: zap.New(core).Sugar()}
}

// SetDefault installs l as the package default
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// WithComponent returns a logger tagged with the component name.
// The package default is resolved per call so loggers created before Init
// still write to the configured sink.
func WithComponent(name string) *Logger {
	return &Logger{component: name}
}

// With returns a child logger carrying the extra key/value pairs
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{
		component: l.component,
		base:      l.sugar().With(keysAndValues...),
	}
}

func (l *Logger) sugar() *zap.SugaredLogger {
	base := l.base
	if base == nil {
		base = defaultLogger.Load().base
	}
	if l.component != "" && l.base == nil {
		return base.With("component", l.component)
	}
	return base
}

// Debug logs a debug message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar().Debugw(msg, keysAndValues...)
}

// Info logs an info message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar().Infow(msg, keysAndValues...)
}

// Warn logs a warning message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar().Warnw(msg, keysAndValues...)
}

// Error logs an error message with key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar().Errorw(msg, keysAndValues...)
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar().Sync()
}

// Close flushes and releases the underlying file, if any
func (l *Logger) Close() error {
	if l.base != nil {
		_ = l.base.Sync()
	}
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Close closes the default logger and restores the no-op default
func Close() error {
	prev := defaultLogger.Swap(&Logger{base: zap.NewNop().Sugar()})
	if prev == nil {
		return nil
	}
	return prev.Close()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
