package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xgenio/xgen/xlog"
)

const validDoc = `backend: sql
keyPrefix: "app:"
sequences:
  - name: orders
    blockSize: 10
  - name: invoices
    blockSize: 50
    initialValue: 1000
`

func writeDoc(t *testing.T, dir, filename, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(doc), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "xgen.yaml", validDoc)

	cfg, err := Load(dir, "xgen.yaml")
	require.NoError(t, err)
	require.Equal(t, BackendSQL, cfg.Backend)
	require.Equal(t, "app:", cfg.KeyPrefix)
	require.Len(t, cfg.Sequences, 2)

	spec, ok := cfg.Sequence("invoices")
	require.True(t, ok)
	require.EqualValues(t, 50, spec.BlockSize)
	require.EqualValues(t, 1000, spec.InitialValue)
	_, ok = cfg.Sequence("absent")
	require.False(t, ok)
}

func TestLoadRejectsBadDocs(t *testing.T) {
	dir := t.TempDir()

	testcases := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown backend", "backend: dynamo\nsequences:\n  - name: a\n    blockSize: 1\n", ErrUnknownBackend},
		{"no sequences", "backend: redis\n", ErrNoSequences},
		{"zero block size", "backend: redis\nsequences:\n  - name: a\n    blockSize: 0\n", ErrBadSequenceSpec},
		{"empty name", "backend: redis\nsequences:\n  - name: \"\"\n    blockSize: 5\n", ErrBadSequenceSpec},
		{"duplicate name", "backend: redis\nsequences:\n  - name: a\n    blockSize: 5\n  - name: a\n    blockSize: 5\n", ErrDuplicateSequence},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			writeDoc(t, dir, "xgen.yaml", tc.doc)
			_, err := Load(dir, "xgen.yaml")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "nope.yaml")
	require.Error(t, err)
}

func TestLoaderHotReload(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "xgen.yaml", validDoc)
	logger := xlog.NewXLogger(xlog.WithLogLevel(xlog.LogLevelError))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loader, err := NewLoader(ctx, dir, "xgen.yaml", logger)
	require.NoError(t, err)
	require.Equal(t, BackendSQL, loader.Current().Backend)

	updates, unsubscribe := loader.Subscribe()
	defer unsubscribe()

	writeDoc(t, dir, "xgen.yaml", "backend: redis\nsequences:\n  - name: orders\n    blockSize: 99\n")
	select {
	case cfg := <-updates:
		require.Equal(t, BackendRedis, cfg.Backend)
		spec, ok := cfg.Sequence("orders")
		require.True(t, ok)
		require.EqualValues(t, 99, spec.BlockSize)
	case <-time.After(5 * time.Second):
		t.Fatal("reload notification never arrived")
	}
	require.Equal(t, BackendRedis, loader.Current().Backend)
}

func TestLoaderKeepsSnapshotOnBadRewrite(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "xgen.yaml", validDoc)
	logger := xlog.NewXLogger(xlog.WithLogLevel(xlog.LogLevelError))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loader, err := NewLoader(ctx, dir, "xgen.yaml", logger)
	require.NoError(t, err)

	writeDoc(t, dir, "xgen.yaml", "backend: dynamo\n")
	// Give the watcher a moment to observe and reject the rewrite.
	time.Sleep(500 * time.Millisecond)
	require.Equal(t, BackendSQL, loader.Current().Backend)
	require.Len(t, loader.Current().Sequences, 2)
}
