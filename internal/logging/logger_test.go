package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipr-api/internal/config"
	"swipr-api/internal/logging/adapters"
)

func newBufferLogger(t *testing.T, format string) (*MultiLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := NewMultiLogger()
	require.NoError(t, logger.AddAdapter(adapters.NewStdoutAdapter("buffer", adapters.StdoutConfig{
		Format: format,
		Output: buf,
	})))
	return logger, buf
}

func TestMultiLoggerJSONFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "json")

	logger.WithField("request_id", "req-1").Info("Application stored", map[string]interface{}{
		"application_id": "APP-1",
	})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "Application stored", line["message"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "APP-1", line["application_id"])
}

func TestMultiLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, "text")
	logger.SetLevel(WarnLevel)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "[WARN] kept")
}

func TestDerivedLoggerSharesAdapters(t *testing.T) {
	logger, buf := newBufferLogger(t, "text")
	derived := logger.WithError(errors.New("boom"))

	logger.SetLevel(ErrorLevel)
	derived.Warn("filtered by parent level")
	derived.Error("store failed")

	out := buf.String()
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "error=boom")
}

func TestAddAdapterRejectsDuplicates(t *testing.T) {
	logger, _ := newBufferLogger(t, "json")
	err := logger.AddAdapter(adapters.NewStdoutAdapter("buffer", adapters.StdoutConfig{}))
	assert.Error(t, err)

	require.NoError(t, logger.RemoveAdapter("buffer"))
	assert.Empty(t, logger.Adapters())
	assert.Error(t, logger.RemoveAdapter("buffer"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, InfoLevel, ParseLogLevel("nonsense"))
}

func TestManagerInitializeDefaultsToStdout(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "debug"

	m := NewManager()
	require.NoError(t, m.Initialize(cfg))

	ml := m.GetLogger().(*MultiLogger)
	assert.Equal(t, []string{"stdout"}, ml.Adapters())
	assert.Equal(t, DebugLevel, ml.GetLevel())
}

func TestManagerInitializeRejectsUnknownAdapter(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Adapters = append(cfg.Logging.Adapters, struct {
		Name    string                 `yaml:"name"`
		Type    string                 `yaml:"type"`
		Enabled bool                   `yaml:"enabled"`
		Options map[string]interface{} `yaml:"options"`
	}{Name: "bogus", Type: "carrier-pigeon", Enabled: true})

	err := NewManager().Initialize(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bogus"))
}
