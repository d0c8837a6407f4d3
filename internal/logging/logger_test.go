package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARNING "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("???"))
}

func TestLogger_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel).Component("session").With("player", "p1")

	l.Debug("скрыто %d", 1)
	assert.Zero(t, buf.Len(), "debug ниже уровня info")

	l.Info("checkpoint %d", 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "checkpoint 2", entry["message"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "p1", entry["player"])
}

func TestInitDefaultLogger_WritesFile(t *testing.T) {
	dir := t.TempDir()
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	require.NoError(t, InitDefaultLogger("test", Options{Level: "debug", Dir: dir, NoColor: true}))
	Info("запись в файл")
	CloseDefaultLogger()

	files, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "запись в файл")
}

func TestManager_CachesComponents(t *testing.T) {
	lm := &LoggerManager{loggers: make(map[string]*Logger)}
	a := lm.GetLogger("storage")
	b := lm.GetLogger("storage")
	assert.Same(t, a, b)

	lm.GetLogger("api")
	assert.Equal(t, []string{"api", "storage"}, lm.ListComponents())

	lm.Reset()
	assert.Empty(t, lm.ListComponents())
}
