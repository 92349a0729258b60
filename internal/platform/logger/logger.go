// Package logger provides structured logging for the factory server.
// Every state change driven by the simulation should be traceable through this.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the log level and output encoding.
type Config struct {
	Level    string
	Encoding string // "json" or "console"
}

// Logger wraps a zap logger behind the small surface the rest of the
// server uses.
type Logger struct {
	zl *zap.SugaredLogger
}

// New builds a logger from the provided configuration.
func New(cfg Config) (*Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		level,
	)

	return &Logger{zl: zap.New(core).Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop().Sugar()}
}

// Info logs informational messages with optional key/value pairs.
func (l *Logger) Info(msg string, kv ...interface{}) {
	l.zl.Infow(msg, kv...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.zl.Warnw(msg, kv...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, kv ...interface{}) {
	l.zl.Errorw(msg, kv...)
}

// Event logs a simulation event for the audit trail.
func (l *Logger) Event(eventType string, sessionID string, details string) {
	l.zl.Infow("simulation event",
		"event_type", eventType,
		"session_id", sessionID,
		"details", details,
	)
}

// Sync flushes buffered log entries. Call before process exit.
func (l *Logger) Sync() {
	_ = l.zl.Sync()
}
