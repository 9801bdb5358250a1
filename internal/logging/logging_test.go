package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProdIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(EnvProd, &buf)

	log.Debug("hidden")
	log.Info("attempt started", "quiz", "q1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "attempt started", entry["msg"])
	assert.Equal(t, "q1", entry["quiz"])
}

func TestLocalIsTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(EnvLocal, &buf)

	log.Debug("cue playback failed")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), `msg="cue playback failed"`)
}
