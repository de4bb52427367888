package logger

import (
	"log/slog"
	"os"
	"path/filepath"
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
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l := New("warn", dir)
	assert.Equal(t, filepath.Join(dir, FileName), l.LogFile)

	l.Infof("dropped %d", 1)
	l.With("component", "scene").Warnf("kept %d", 2)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(l.LogFile)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"kept 2"`)
	assert.Contains(t, out, `"component":"scene"`)
	assert.NotContains(t, out, "dropped")
	assert.NotContains(t, out, "Hello logging")
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Debugf("x")
		l.Infof("x")
		assert.Nil(t, l.With("a", 1))
		assert.NoError(t, l.Close())
	})
	assert.Equal(t, slog.Default(), l.Slog())
}
