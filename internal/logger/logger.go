// Package logger wraps zap behind a small structured logging interface.
package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across researchdesk
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field is a key-value pair attached to a log entry
type Field = zap.Field

// Config controls logger construction
type Config struct {
	Level string
	// JSON switches from console to JSON encoding
	JSON bool
	// OutputPaths defaults to stderr so stdout stays free for results and MCP stdio
	OutputPaths []string
}

type zapLogger struct {
	logger *zap.Logger
}

// New creates a Logger from the given configuration
func New(cfg Config) (Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = "console"
	if cfg.JSON {
		zapCfg.Encoding = "json"
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	zapCfg.Sampling = nil
	zapCfg.DisableStacktrace = true

	zapCfg.OutputPaths = []string{"stderr"}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &zapLogger{logger: z}, nil
}

// ParseLevel converts a level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func (l *zapLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

// Field helpers

func String(key, value string) Field          { return zap.String(key, value) }
func Int(key string, value int) Field         { return zap.Int(key, value) }
func Float64(key string, value float64) Field { return zap.Float64(key, value) }
func Bool(key string, value bool) Field       { return zap.Bool(key, value) }
func Duration(key string, value time.Duration) Field {
	return zap.Duration(key, value)
}
func Err(err error) Field { return zap.Error(err) }

// nop discards every entry
type nop struct{}

// NewNop returns a logger that discards everything
func NewNop() Logger { return nop{} }

func (nop) Debug(string, ...Field) {}
func (nop) Info(string, ...Field)  {}
func (nop) Warn(string, ...Field)  {}
func (nop) Error(string, ...Field) {}
func (n nop) With(...Field) Logger { return n }
func (nop) Sync() error            { return nil }
