package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.DebugLevel

// Rotation limits for the optional file sink.
const (
	maxLogSizeMB  = 20
	maxLogBackups = 5
	maxLogAgeDays = 28
)

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// newConsoleCore builds a zapcore.Core with a console encoder targeting stdout.
func newConsoleCore(level zapcore.Level) zapcore.Core {
	cfg := encoderConfig()
	cfg.TimeKey = ""

	encoder := zapcore.NewConsoleEncoder(cfg)
	ws := zapcore.Lock(os.Stdout) // thread-safe writer
	return zapcore.NewCore(encoder, zapcore.AddSync(ws), zap.NewAtomicLevelAt(level))
}

// newFileCore builds a JSON core writing to a size-rotated log file.
func newFileCore(level zapcore.Level, path string) zapcore.Core {
	encoder := zapcore.NewJSONEncoder(encoderConfig())
	ws := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	})
	return zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level))
}

// newZapLogger constructs a sugared zap logger with the provided level string.
// When file is non-empty, log entries are teed to a rotating file.
func newZapLogger(levelStr, file string) *Logger {
	level := toZapLevel(levelStr)
	core := newConsoleCore(level)
	if file != "" {
		core = zapcore.NewTee(core, newFileCore(level, file))
	}
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
	}
}
