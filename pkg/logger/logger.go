package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

type LogLevel string

const (
	DEBUG LogLevel = "debug"
	INFO  LogLevel = "info"
	WARN  LogLevel = "warn"
	ERROR LogLevel = "error"
)

func (l LogLevel) slogLevel() slog.Level {
	switch LogLevel(strings.ToLower(string(l))) {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger writes levelled key/value records. Event names are snake_case
// messages, e.g. log.Info("chapter_saved", "novel_id", id).
type Logger struct {
	level LogLevel
	base  *slog.Logger
}

var (
	global   *Logger
	globalMu sync.RWMutex
)

// New builds a logger. A nil writer discards output, which keeps tests quiet.
func New(level LogLevel, jsonFormat bool, out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	opts := &slog.HandlerOptions{Level: level.slogLevel()}
	var h slog.Handler
	if jsonFormat {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return &Logger{level: level, base: slog.New(h)}
}

func Init(level LogLevel, jsonFormat bool, out io.Writer) {
	l := New(level, jsonFormat, out)
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

// GetLogger returns the process logger, creating a discarding one when Init
// has not run yet.
func GetLogger() *Logger {
	globalMu.RLock()
	l := global
	globalMu.RUnlock()
	if l != nil {
		return l
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New(INFO, false, nil)
	}
	return global
}

func (l *Logger) Level() LogLevel { return l.level }

// WithContext returns a child logger that stamps every record with kv.
func (l *Logger) WithContext(kv ...any) *Logger {
	return &Logger{level: l.level, base: l.base.With(kv...)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(slog.LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(slog.LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(slog.LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(slog.LevelError, msg, kv) }

func (l *Logger) log(level slog.Level, msg string, kv []any) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Log(context.Background(), level, msg, kv...)
}

func Debug(msg string, kv ...any) { GetLogger().Debug(msg, kv...) }
func Info(msg string, kv ...any)  { GetLogger().Info(msg, kv...) }
func Warn(msg string, kv ...any)  { GetLogger().Warn(msg, kv...) }
func Error(msg string, kv ...any) { GetLogger().Error(msg, kv...) }
