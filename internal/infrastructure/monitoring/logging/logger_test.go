package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestZapLogger_Levels(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLogger_Fields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.Info("fit accepted",
		String("prefix", "GT1"),
		Int("anchors", 12),
		Float64("cv_r2", 0.91),
		Bool("pooled", false),
		Duration("elapsed", 5*time.Millisecond),
	)

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "GT1", ctx["prefix"])
	assert.Equal(t, int64(12), ctx["anchors"])
	assert.Equal(t, 0.91, ctx["cv_r2"])
	assert.Equal(t, false, ctx["pooled"])
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
	assert.Equal(t, "boom", Err(errors.New("boom")).Value)
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	child := log.With(String("run_id", "abc")).Named("cascade")
	child.Info("escalating")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "cascade", entry.LoggerName)
	assert.Equal(t, "abc", entry.ContextMap()["run_id"])
}

func TestNewLogger_Defaults(t *testing.T) {
	log, err := NewLogger(Config{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	// Must not panic and must return usable children.
	log.Info("ignored")
	log.With(String("k", "v")).Named("x").Error("ignored")
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log := NewNopLogger()
	SetDefault(log)
	assert.Equal(t, log, Default())

	// nil must not replace the default.
	SetDefault(nil)
	assert.Equal(t, log, Default())
}
