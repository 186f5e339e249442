package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init("loud", "json"))
	assert.NoError(t, Init("debug", "console"))
	t.Cleanup(func() { Set(zap.NewNop()) })
}

func TestHelpersWriteToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(zap.NewNop()) })

	Info("hello", zap.Int64("user", 7))
	Warn("careful")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, int64(7), entry.ContextMap()["user"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
}
