// ABOUTME: Tests for logger construction
// ABOUTME: Checks level mapping and the JSON formatter output
package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, Level("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, Level("warning"))
	assert.Equal(t, logrus.PanicLevel, Level("silent"))
	assert.Equal(t, logrus.InfoLevel, Level("loud"))
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", "json")
	l.WithField("run_id", "r1").Info("import completed")
	l.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "import completed", entry["msg"])
	assert.Equal(t, "r1", entry["run_id"])
}
