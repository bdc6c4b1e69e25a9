package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
		wantWarn  bool
		wantJSON  bool
	}{
		{name: "defaults", wantWarn: true},
		{name: "debug text", level: "debug", format: "text", wantDebug: true, wantWarn: true},
		{name: "error json", level: "error", format: "json", wantJSON: true},
		{name: "uppercase", level: "INFO", format: "JSON", wantWarn: true, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(tt.level, tt.format, &buf)
			require.NoError(t, err)

			logger.Debug("debug message")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))

			buf.Reset()
			logger.Warn("warn message", "student_id", "7")
			assert.Equal(t, tt.wantWarn, bytes.Contains(buf.Bytes(), []byte("warn message")))

			if tt.wantJSON && tt.wantWarn {
				var entry map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
				assert.Equal(t, "7", entry["student_id"])
			}
		})
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger("loud", "text", &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid log level")

	_, err = NewLogger("info", "xml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid log format")
}
