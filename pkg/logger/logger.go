// Package logger is the structured logger of the service: typed fields on
// top of a log/slog JSON handler, plus context propagation.
//
// Components that accept a plain *slog.Logger get one from Slog, which
// shares the handler, so both styles end up in the same stream.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel maps a config value to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Field is one structured key/value.
type Field = slog.Attr

func String(key, value string) Field         { return slog.String(key, value) }
func Int(key string, value int) Field        { return slog.Int(key, value) }
func Bool(key string, value bool) Field      { return slog.Bool(key, value) }
func Any(key string, value any) Field        { return slog.Any(key, value) }
func Time(key string, value time.Time) Field { return slog.Time(key, value) }

// Duration renders d as text ("1.5s") rather than nanoseconds.
func Duration(key string, d time.Duration) Field {
	return slog.String(key, d.String())
}

// Err is the "error" field; a nil error is logged as null.
func Err(err error) Field {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", err.Error())
}

// Domain fields.
func UserID(id string) Field        { return String("user_id", id) }
func ProgressLevel(level int) Field { return Int("user_level", level) }
func RankID(id string) Field        { return String("rank_id", id) }
func Score(score int) Field         { return Int("total_score", score) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }

// Logger writes JSON lines. The zero value is not usable; use New.
type Logger struct {
	sl    *slog.Logger
	level slog.Level
}

// Options configures New.
type Options struct {
	Output    io.Writer
	Level     slog.Level
	AddSource bool
}

// New creates a Logger.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	h := slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	})
	return &Logger{sl: slog.New(h), level: opts.Level}
}

// Default logs at info to stdout.
func Default() *Logger {
	return New(Options{Level: slog.LevelInfo})
}

// NewFromConfig builds a logger from a level name ("debug", "info", ...).
func NewFromConfig(level string, output io.Writer) *Logger {
	return New(Options{Output: output, Level: ParseLevel(level)})
}

// Level is the minimum level emitted.
func (l *Logger) Level() slog.Level {
	return l.level
}

// Slog exposes the underlying logger, fields included.
func (l *Logger) Slog() *slog.Logger {
	return l.sl
}

// With returns a child logger that adds fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	if len(fields) == 0 {
		return l
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return &Logger{sl: l.sl.With(args...), level: l.level}
}

func (l *Logger) log(level slog.Level, msg string, fields []Field) {
	l.sl.LogAttrs(context.Background(), level, msg, fields...)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

type ctxKey struct{}

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the attached logger or Default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// RequestIDKey is the field name of the per-request id.
const RequestIDKey = "request_id"

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}
