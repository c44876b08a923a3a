package xlog

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xgenio/xgen/lib/infra"
)

var _ XLogger = (*xLogger)(nil)

type xLogger struct {
	logger              atomic.Pointer[zap.Logger]
	dynamicLevelEnabler zap.AtomicLevel
	encoder             logEncoderType
}

// IncreaseLogLevel we can increase or decrease the log level concurrently.
func (l *xLogger) IncreaseLogLevel(lvl zapcore.Level) {
	l.dynamicLevelEnabler.SetLevel(lvl)
}

func (l *xLogger) Level() string {
	return l.dynamicLevelEnabler.Level().String()
}

func (l *xLogger) Sync() error {
	return l.logger.Load().Sync()
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Load().Debug(msg, fields...)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Load().Info(msg, fields...)
}

func (l *xLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Load().Warn(msg, fields...)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	newFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		newFields = append(newFields, zap.String("error", err.Error()))
	}
	newFields = append(newFields, fields...)
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	var newFields []zap.Field
	if es, ok := err.(infra.ErrorStack); ok && es != nil {
		newFields = make([]zap.Field, 0, len(fields)+1)
		newFields = append(newFields, zap.Inline(es))
		newFields = append(newFields, fields...)
	} else {
		newFields = make([]zap.Field, 0, len(fields)+1)
		if err != nil {
			newFields = append(newFields, zap.String("error", err.Error()))
		}
		newFields = append(newFields, fields...)
	}
	l.logger.Load().Error(msg, newFields...)
}

func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.logger.Load().Log(lvl, fmt.Sprintf(format, args...))
}

func (l *xLogger) Named(component string) XLogger {
	sub := &xLogger{
		dynamicLevelEnabler: l.dynamicLevelEnabler,
		encoder:             l.encoder,
	}
	sub.logger.Store(l.logger.Load().Named(component))
	return sub
}

type XLoggerOption func(*xLoggerCfg)

type xLoggerCfg struct {
	level   logLevel
	encoder logEncoderType
	ws      zapcore.WriteSyncer
}

func WithLogLevel(lvl logLevel) XLoggerOption {
	return func(cfg *xLoggerCfg) { cfg.level = lvl }
}

func WithJSONEncoder() XLoggerOption {
	return func(cfg *xLoggerCfg) { cfg.encoder = JSON }
}

func WithPlainTextEncoder() XLoggerOption {
	return func(cfg *xLoggerCfg) { cfg.encoder = PlainText }
}

func WithWriteSyncer(ws zapcore.WriteSyncer) XLoggerOption {
	return func(cfg *xLoggerCfg) { cfg.ws = ws }
}

func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &xLoggerCfg{
		level:   LogLevelInfo,
		encoder: JSON,
		ws:      zapcore.Lock(os.Stdout),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch cfg.encoder {
	case PlainText:
		enc = zapcore.NewConsoleEncoder(encCfg)
	case JSON:
		fallthrough
	default:
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	l := &xLogger{
		dynamicLevelEnabler: zap.NewAtomicLevelAt(cfg.level.zapLevel()),
		encoder:             cfg.encoder,
	}
	core := zapcore.NewCore(enc, cfg.ws, l.dynamicLevelEnabler)
	l.logger.Store(zap.New(core))
	return l
}
