package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("development"))
}

func TestGet_BeforeInit(t *testing.T) {
	mu.Lock()
	globalLogger = nil
	mu.Unlock()

	l := Get()
	require.NotNil(t, l)
	l.Info("discarded")
}

func TestInit(t *testing.T) {
	err := Init(&Config{Level: "debug", ServiceName: "webinar-service"})
	require.NoError(t, err)
	defer Sync()

	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &Logger{Logger: zap.New(core)}

	l.With(zap.String("webinar_id", "w-1")).Info("seats updated")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "seats updated", entry.Message)
	assert.Equal(t, "w-1", entry.ContextMap()["webinar_id"])
}
