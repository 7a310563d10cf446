package observability

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quantum-portal/api/internal/platform/requestctx"
)

// LoggerOptions selects level, encoding and the fields stamped on every entry.
type LoggerOptions struct {
	Level   string
	Format  string // json or console
	Service string
	Version string
}

// LoggerOptionsFromEnv reads LOG_LEVEL and LOG_FORMAT. The logger exists before configuration
// is loaded, so it cannot come from config.Load.
func LoggerOptionsFromEnv(service string) LoggerOptions {
	return LoggerOptions{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: service,
		Version: os.Getenv("API_BUILD_VERSION"),
	}
}

// NewLogger builds a zap logger whose JSON keys match Cloud Logging's structured payload. An
// unknown level falls back to info.
func NewLogger(opts LoggerOptions) (*zap.Logger, error) {
	return newLoggerConfig(opts).Build(zap.Fields(serviceFields(opts)...))
}

func newLoggerConfig(opts LoggerOptions) zap.Config {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if raw := strings.TrimSpace(opts.Level); raw != "" {
		_ = level.UnmarshalText([]byte(strings.ToLower(raw)))
	}

	encoding := "json"
	encoder := zapcore.EncoderConfig{
		MessageKey:    "message",
		TimeKey:       "timestamp",
		LevelKey:      "severity",
		NameKey:       "logger",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:   severityEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		encoding = "console"
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}
	return zap.Config{
		Level:             level,
		Encoding:          encoding,
		EncoderConfig:     encoder,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
}

// severityEncoder writes Cloud Logging severities; zap's dpanic and fatal map to CRITICAL.
func severityEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	case zapcore.InfoLevel:
		enc.AppendString("INFO")
	case zapcore.WarnLevel:
		enc.AppendString("WARNING")
	case zapcore.ErrorLevel:
		enc.AppendString("ERROR")
	default:
		enc.AppendString("CRITICAL")
	}
}

func serviceFields(opts LoggerOptions) []zap.Field {
	var fields []zap.Field
	if s := strings.TrimSpace(opts.Service); s != "" {
		fields = append(fields, zap.String("service", s))
	}
	if v := strings.TrimSpace(opts.Version); v != "" {
		fields = append(fields, zap.String("version", v))
	}
	return fields
}

// WithLogger injects the logger into the provided context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// FromContext retrieves the logger from context, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}

// CronLogger routes robfig/cron diagnostics to zap as structured entries.
type CronLogger struct {
	logger *zap.SugaredLogger
}

var _ cron.Logger = CronLogger{}

// NewCronLogger wraps logger for cron.WithLogger.
func NewCronLogger(logger *zap.Logger) CronLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return CronLogger{logger: logger.Sugar()}
}

// Info logs scheduler lifecycle events at debug level; cron emits one per tick.
func (l CronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

// Error logs job failures and recovered panics.
func (l CronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append([]any{"error", err}, keysAndValues...)...)
}

// WithRequestFields augments the logger with standard request-scoped fields.
func WithRequestFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(fields...)
}

// EventLogger is the structured logging hook accepted by services.
type EventLogger func(ctx context.Context, event string, fields map[string]any)

// NewEventLogger adapts zap to the service logging hook. The request-scoped logger wins when
// one is attached to ctx so tenant and trace fields carry over.
func NewEventLogger(fallback *zap.Logger) EventLogger {
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == requestctx.NoopLogger() {
			logger = fallback
		}
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for _, key := range keys {
			zFields = append(zFields, zap.Any(key, fields[key]))
		}
		logger.Info(event, zFields...)
	}
}
