package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	appContext "gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestCoreLogger_WithTraceIDOnlyOnce(t *testing.T) {
	var buf bytes.Buffer
	l := NewCoreLoggerWithWriter(&buf, slog.LevelDebug, config.LoggerConfig{})

	l.WithTraceID("t-1").WithTraceID("t-2").Info("hello %s", "world")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "hello world", entry["msg"])
	assert.Equal(t, "t-1", entry["trace_id"])
}

func TestContextLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	cl := &ContextLogger{CoreLogger: NewCoreLoggerWithWriter(&buf, slog.LevelInfo, config.LoggerConfig{})}

	ctx := appContext.NewAppContextWithTracingAndUser(context.Background(), "trace-9", "op-1",
		appContext.WithLogger(cl.CoreLogger.Logger))

	cl.FromContext(ctx).InfoWithFields("heartbeat accepted", map[string]interface{}{"status": "online"})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "trace-9", entry["trace_id"])
	assert.Equal(t, "op-1", entry["user_id"])
	assert.Equal(t, "online", entry["status"])
}

func TestNewCoreLogger_Validation(t *testing.T) {
	_, err := NewCoreLogger(config.LoggerConfig{Level: "verbose"})
	assert.Error(t, err)

	_, err = NewCoreLogger(config.LoggerConfig{Level: "info", Output: "file"})
	assert.Error(t, err)

	l, err := NewCoreLogger(config.LoggerConfig{
		Level:  "info",
		Output: "file",
		Path:   filepath.Join(t.TempDir(), "coordinator.log"),
	})
	require.NoError(t, err)
	assert.NotNil(t, l)
}
