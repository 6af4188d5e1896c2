package log

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelSilent, ParseLevel("off"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLoggerFieldsReachCore(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core)

	l.With(String("tree", "guard")).Info("tick",
		Int("depth", 3),
		Bool("running", true),
		Duration("interval", time.Second),
		Ints("history", []int{0, 2, 4}),
		Error(errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "guard", ctx["tree"])
	assert.EqualValues(t, 3, ctx["depth"])
	assert.Equal(t, true, ctx["running"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLoggerLevelGate(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core)
	l.SetLevel(LevelWarn)
	assert.Equal(t, LevelWarn, l.GetLevel())

	l.Log(LevelInfo, "dropped")
	l.Log(LevelError, "kept")
	require.Len(t, logs.All(), 1)
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestNewWithFileConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.File = filepath.Join(t.TempDir(), "liquid.log")
	cfg.Encoding = "console"
	l := NewFromConfig(cfg)
	l.Info("written")
	_ = l.Sync()
	assert.FileExists(t, cfg.File)
}

func TestNopAndOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	n := NewNop()
	n.Error("ignored")
	assert.Equal(t, LevelSilent, n.GetLevel())
	assert.NotNil(t, Provide())
}
