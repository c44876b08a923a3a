package xlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xgenio/xgen/lib/infra"
)

type memSyncer struct {
	bytes.Buffer
}

func (ms *memSyncer) Sync() error { return nil }

func TestXLoggerLevels(t *testing.T) {
	buf := &memSyncer{}
	logger := NewXLogger(
		WithLogLevel(LogLevelInfo),
		WithJSONEncoder(),
		WithWriteSyncer(buf),
	)
	logger.Debug("invisible")
	logger.Info("visible", zap.String("seq", "orders"))
	require.NotContains(t, buf.String(), "invisible")
	require.Contains(t, buf.String(), "visible")
	require.Contains(t, buf.String(), "orders")

	logger.IncreaseLogLevel(zapcore.DebugLevel)
	require.Equal(t, zapcore.DebugLevel.String(), logger.Level())
	logger.Debug("now visible")
	require.Contains(t, buf.String(), "now visible")
}

func TestXLoggerNamed(t *testing.T) {
	buf := &memSyncer{}
	logger := NewXLogger(
		WithLogLevel(LogLevelDebug),
		WithPlainTextEncoder(),
		WithWriteSyncer(buf),
	)
	sub := logger.Named("Allocator")
	sub.Info("refill")
	require.Contains(t, buf.String(), "Allocator")
	require.Contains(t, buf.String(), "refill")
}

func TestXLoggerErrorStack(t *testing.T) {
	buf := &memSyncer{}
	logger := NewXLogger(
		WithLogLevel(LogLevelDebug),
		WithJSONEncoder(),
		WithWriteSyncer(buf),
	)
	logger.ErrorStack(infra.NewErrorStack("authority unreachable"), "reserve block failed")
	out := buf.String()
	require.Contains(t, out, "authority unreachable")
	require.Contains(t, out, "stack")

	buf.Reset()
	logger.ErrorStack(errors.New("plain"), "fallback path")
	require.Contains(t, buf.String(), "plain")
}

func TestXLoggerLogf(t *testing.T) {
	buf := &memSyncer{}
	logger := NewXLogger(WithLogLevel(LogLevelDebug), WithJSONEncoder(), WithWriteSyncer(buf))
	NewAntsXLogger(logger).Printf("worker %d exited", 3)
	require.True(t, strings.Contains(buf.String(), "worker 3 exited"))
}
