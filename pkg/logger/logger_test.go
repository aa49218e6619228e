package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	connLog := l.With(zap.String("conn_id", "c1"))
	connLog.Info("websocket open")
	connLog.Warn("websocket read error")
	l.Info("no fields")

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "c1", logs.All()[0].ContextMap()["conn_id"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.NotContains(t, logs.All()[2].ContextMap(), "conn_id")
	assert.True(t, connLog.IsDebugMode())
}

func TestFormattedHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.Infof("listening on", ":8090")
	l.Errorf("marshal response error:", errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "listening on :8090", logs.All()[0].Message)
	assert.Equal(t, "marshal response error: boom", logs.All()[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestSetDebugMode(t *testing.T) {
	core, _ := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core)

	l.SetDebugMode(false)
	assert.False(t, l.IsDebugMode())
	l.SetDebugMode(true)
	assert.True(t, l.IsDebugMode())
}
