package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"dev":     slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"prod":    slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in, slog.LevelInfo), in)
	}
}

func TestPionFactory_RoutesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l := (&PionFactory{Logger: logger}).NewLogger("ice")
	l.Debugf("hidden %d", 1)
	l.Warnf("candidate %s failed", "host")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "candidate host failed")
	assert.Contains(t, out, "scope=ice")
}
