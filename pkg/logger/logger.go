// Package logger is a thin zap wrapper that pulls request metadata out of the
// context so call sites only pass business fields.
package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "storehouse/internal/core/context"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects level and encoding. Unknown levels mean info.
type Config struct {
	Level       string
	Format      string
	OutputPaths []string
}

type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

func New(cfg Config) (*Logger, error) {
	zc := zap.NewProductionConfig()
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == FormatConsole {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	zc.OutputPaths = cfg.OutputPaths
	if len(zc.OutputPaths) == 0 {
		zc.OutputPaths = []string{"stdout"}
	}

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

func NewNop() *Logger { return &Logger{zap.NewNop().Sugar()} }

var (
	defaultOnce   sync.Once
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// SetDefault installs the logger used for contexts that carry none.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

func fallback() *Logger {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		if defaultLogger != nil {
			return
		}
		l, err := New(Config{Level: "info"})
		if err != nil {
			l = NewNop()
		}
		defaultLogger = l
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithContext returns l with trace_id, request_id and user_id attached when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	s := l.SugaredLogger
	if tc := appctx.GetTrace(ctx); tc != nil {
		s = s.With("trace_id", tc.TraceID, "request_id", tc.RequestID)
	}
	if uc := appctx.GetUser(ctx); uc != nil {
		s = s.With("user_id", uc.UserID)
	}
	return &Logger{s}
}

func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{l.SugaredLogger.With(keysAndValues...)}
}

func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext prefers the request logger and falls back to the process default.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok {
		l = fallback()
	}
	return l.WithContext(ctx)
}

func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}
