package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "Warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "ERROR", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew_WritesToFileAndWriter(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "scan.log")

	log, closeFn, err := New(&out, path, slog.LevelInfo)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("Scan complete.", "open", 2)
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out.String(), string(data))
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "open=2")
	assert.Regexp(t, regexp.MustCompile(`time="?\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}`), out.String())
}

func TestNew_BadLogFile(t *testing.T) {
	_, _, err := New(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing", "scan.log"), slog.LevelInfo)
	assert.Error(t, err)
}
