package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logEncoderType uint8

const (
	JSON logEncoderType = iota
	PlainText
)

type logLevel string

const (
	LogLevelDebug logLevel = "DEBUG"
	LogLevelInfo  logLevel = "INFO"
	LogLevelWarn  logLevel = "WARN"
	LogLevelError logLevel = "ERROR"
)

func (lvl logLevel) zapLevel() zapcore.Level {
	switch lvl {
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelDebug:
		fallthrough
	default:
	}
	return zapcore.DebugLevel
}

func (lvl logLevel) String() string {
	return string(lvl)
}

// XLogger is a thin wrapper around the Uber zap logger with a
// concurrently adjustable level.
type XLogger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(err error, msg string, fields ...zap.Field)
	ErrorStack(err error, msg string, fields ...zap.Field)
	Logf(lvl zapcore.Level, format string, args ...any)
	Named(component string) XLogger
	IncreaseLogLevel(lvl zapcore.Level)
	Level() string
	Sync() error
}
