package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNew_WritesAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, "warn", "")
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "posting_id", "p1")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "posting_id=p1")
}

func TestFileWriter_KeepsTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "meshit.log")
	w, err := newFileWriter(path, 64, 32)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 10; i++ {
		_, err := w.Write([]byte(strings.Repeat("x", 15) + "\n"))
		require.NoError(t, err)
	}
	_, err = w.Write([]byte("last line\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.LessOrEqual(t, len(data), 64)
	require.True(t, strings.HasSuffix(string(data), "last line\n"))
}
