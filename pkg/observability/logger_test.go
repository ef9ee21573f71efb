package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json with environment", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(&buf, "debug", "json", "staging").Debug("hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "staging", line["environment"])
		assert.Equal(t, "mozilla-ignite", line["service"])
	})

	t.Run("text drops below level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "warn", "text", "")
		logger.Info("quiet")
		logger.Warn("loud")
		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "msg=loud")
	})

	t.Run("unknown level is info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, "chatty", "text", "")
		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}
