package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsLogger(t *testing.T) {
	log := New(Options{Level: "debug", Format: "text"})
	require.NotNil(t, log)
}

func TestNewWithSentryFanout(t *testing.T) {
	log := New(Options{Level: "info", Format: "json", SentryEnabled: true})
	require.NotNil(t, log)
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, parseLevel(tc.in), tc.in)
	}
}
