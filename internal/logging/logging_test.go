package logging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/config"
)

const (
	waitTimeout = 3 * time.Second
	pollEvery   = 5 * time.Millisecond
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		" INFO ":  zap.InfoLevel,
		"warning": zap.WarnLevel,
		"warn":    zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"bogus":   zap.InfoLevel,
	} {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetup_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mochi.log")
	logger, err := Setup(config.LogConfig{
		Level:   "debug",
		Format:  "json",
		Outputs: []string{path},
	})
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger.Debug("hello", zap.String("k", "v"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestSetup_RotatedFileOutput(t *testing.T) {
	dir := t.TempDir()
	rotated := filepath.Join(dir, "rotated.log")
	logger, err := Setup(config.LogConfig{
		Level:   "info",
		Format:  "console",
		Outputs: []string{filepath.Join(dir, "ignored.log")},
		Rotation: config.RotationConfig{
			Enable:   true,
			Filename: rotated,
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger.Debug("filtered")
	logger.Info("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(rotated)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "filtered")
	assert.NoFileExists(t, filepath.Join(dir, "ignored.log"))
}

func TestBridgeLogger(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	l := NewBridgeLogger(zap.New(zcore))

	l.Debug("d", core.F("n", 1))
	l.Info("i")
	l.Warn("w", core.F("bridge", "ui"))
	l.Error("e", core.F("err", errors.New("boom")))

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(1), entries[0].ContextMap()["n"])
	assert.Equal(t, "ui", entries[2].ContextMap()["bridge"])
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
}

func TestBridgeLogger_Nil(t *testing.T) {
	l := NewBridgeLogger(nil)
	l.Info("discarded", core.F("k", "v"))
}

func TestPanicLogger(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	p := NewPanicLogger(zap.New(zcore))

	p.HandlePanic(context.Background(), "ui", "load", "boom", []byte("stack"))

	entries := logs.FilterMessage("task panicked").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ui", fields["bridge"])
	assert.Equal(t, "load", fields["task"])
	assert.Equal(t, "boom", fields["panic"])
	assert.NotContains(t, fields, "task_id")
}

func TestPanicLogger_FromBridge(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	backend := core.NewThreadedBackend("threaded", 1)
	b := core.NewBridge(backend, &core.BridgeConfig{
		Name:         "ui",
		PanicHandler: NewPanicLogger(zap.New(zcore)),
		Logger:       NewBridgeLogger(zap.New(zcore)),
	})
	defer b.Shutdown()

	done := make(chan core.Outcome[int], 1)
	_, err := core.Spawn(b, core.Func(func(context.Context) (int, error) {
		panic("kaboom")
	}).Named("explode"), func(o core.Outcome[int]) { done <- o })
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		b.Poll()
		return len(done) == 1
	}, waitTimeout, pollEvery)

	o := <-done
	assert.True(t, o.IsFailure())
	assert.True(t, core.IsPanic(o.Err))

	entries := logs.FilterMessage("task panicked").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "explode", entries[0].ContextMap()["task"])
	assert.Contains(t, entries[0].ContextMap(), "task_id")
}

func TestRejectionLogger(t *testing.T) {
	zcore, logs := observer.New(zap.DebugLevel)
	r := NewRejectionLogger(zap.New(zcore))

	r.HandleRejectedTask("ui", "load", core.ErrOverloaded)

	entries := logs.FilterMessage("task rejected").AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, core.ErrOverloaded.Error(), entries[0].ContextMap()["error"])
}
