package xlog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	glogger "gorm.io/gorm/logger"
	gutils "gorm.io/gorm/utils"
)

var _ glogger.Interface = (*GormXLogger)(nil)

// GormXLogger routes gorm's own logging through an XLogger. The
// sequence authority passes it to gorm.Config so SQL traces share
// the process log stream.
type GormXLogger struct {
	logger              XLogger
	slowThreshold       time.Duration
	gormLevel           int32
	ignoreNotFoundError bool
}

func (l *GormXLogger) LogMode(lvl glogger.LogLevel) glogger.Interface {
	atomic.StoreInt32(&l.gormLevel, int32(lvl))
	l.logger.IncreaseLogLevel(gormLevelToZap(lvl))
	return l
}

func (l *GormXLogger) Info(ctx context.Context, msg string, data ...any) {
	if glogger.LogLevel(atomic.LoadInt32(&l.gormLevel)) >= glogger.Info {
		l.logger.Info(fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Warn(ctx context.Context, msg string, data ...any) {
	if glogger.LogLevel(atomic.LoadInt32(&l.gormLevel)) >= glogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Error(ctx context.Context, msg string, data ...any) {
	if glogger.LogLevel(atomic.LoadInt32(&l.gormLevel)) >= glogger.Error {
		l.logger.Error(nil, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	lvl := glogger.LogLevel(atomic.LoadInt32(&l.gormLevel))
	if lvl <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && lvl >= glogger.Error && (!errors.Is(err, glogger.ErrRecordNotFound) || !l.ignoreNotFoundError):
		sql, rows := fc()
		l.logger.Error(err, "error trace",
			zap.String("fileAndLine", gutils.FileWithLineNum()),
			zap.String("rows", formatRows(rows)),
			zap.Int64("elapsedMs", elapsed.Milliseconds()),
			zap.String("sql", sql),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && lvl >= glogger.Warn:
		sql, rows := fc()
		l.logger.Warn("slow sql",
			zap.Int64("thresholdMs", l.slowThreshold.Milliseconds()),
			zap.String("fileAndLine", gutils.FileWithLineNum()),
			zap.String("rows", formatRows(rows)),
			zap.Int64("elapsedMs", elapsed.Milliseconds()),
			zap.String("sql", sql),
		)
	case lvl >= glogger.Info:
		sql, rows := fc()
		l.logger.Debug("sql trace",
			zap.String("fileAndLine", gutils.FileWithLineNum()),
			zap.String("rows", formatRows(rows)),
			zap.Int64("elapsedMs", elapsed.Milliseconds()),
			zap.String("sql", sql),
		)
	}
}

func formatRows(rows int64) string {
	if rows <= -1 {
		return "-"
	}
	return strconv.FormatInt(rows, 10)
}

func gormLevelToZap(lvl glogger.LogLevel) zapcore.Level {
	switch lvl {
	case glogger.Error:
		return zapcore.ErrorLevel
	case glogger.Warn:
		return zapcore.WarnLevel
	case glogger.Info:
		fallthrough
	default:
	}
	return zapcore.InfoLevel
}

func NewGormXLogger(logger XLogger, slowThreshold time.Duration) *GormXLogger {
	return &GormXLogger{
		logger:        logger.Named("Gorm"),
		slowThreshold: slowThreshold,
		gormLevel:     int32(glogger.Warn),
	}
}
