package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	ServiceName string
	Development bool
}

// Logger wraps zap.Logger
type Logger struct {
	*zap.Logger
}

var (
	globalLogger *Logger
	mu           sync.RWMutex
)

// New builds a Logger from cfg without touching the global instance
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info"}
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	zl, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName != "" {
		zl = zl.With(zap.String("service", cfg.ServiceName))
	}

	return &Logger{Logger: zl}, nil
}

// Init initializes the global logger
func Init(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}

	mu.Lock()
	globalLogger = l
	mu.Unlock()
	return nil
}

// Get returns the global logger, falling back to a no-op logger before Init
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return &Logger{Logger: zap.NewNop()}
	}
	return globalLogger
}

// Sync flushes any buffered log entries
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		_ = globalLogger.Logger.Sync()
	}
}

// NewNop returns a logger that discards everything, for tests
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With returns a child logger carrying the given fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

func parseLevel(level string) zapcore.Level {
	switch level {
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
