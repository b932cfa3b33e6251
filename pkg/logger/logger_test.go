package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestWithLogger(t *testing.T) {
	ctx := context.Background()
	customLogger := logrus.NewEntry(logrus.New()).WithField("component", "index")

	retrieved := G(WithLogger(ctx, customLogger))
	assert.Contains(t, retrieved.Data, "component")
	assert.Equal(t, "index", retrieved.Data["component"])
}

func TestGetLoggerFallsBackToGlobal(t *testing.T) {
	retrieved := G(context.Background())
	require.NotNil(t, retrieved)
	assert.Equal(t, L.Logger, retrieved.Logger)
}

func TestSetLogLevel(t *testing.T) {
	original := L.Logger.GetLevel()
	t.Cleanup(func() { L.Logger.SetLevel(original) })

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	assert.Error(t, SetLogLevel("not-a-level"))
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	setLoggerFormat(logger, "json")
	logger.SetOutput(&buf)

	logger.WithField("skill", "deploy-helper").Info("loaded")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "loaded", record["message"])
	assert.Equal(t, "info", record["logLevel"])
	assert.Equal(t, "deploy-helper", record["skill"])
	assert.Contains(t, record, "timestamp")
}
