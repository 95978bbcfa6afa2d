package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewWritesToConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	l, err := New(Config{Level: "info", JSON: true, OutputPaths: []string{path}})
	require.NoError(t, err)

	l.With(String("component", "test")).Info("hello", Int("n", 3))
	l.Debug("suppressed")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.NotContains(t, string(data), "suppressed")
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.With(Bool("x", true)).Error("ignored", Err(os.ErrNotExist))
	assert.NoError(t, l.Sync())
}
