package logger_test

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusconf/varstore/pkg/logger"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"trace":   logger.LogLevelTrace,
		"DEBUG":   logger.LogLevelDebug,
		"warn":    logger.LogLevelWarning,
		"ERROR":   logger.LogLevelError,
		"":        logger.LogLevelOff,
		"bogus":   logger.LogLevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, logger.ParseLogLevel(in), "input %q", in)
	}
}

func TestInitializeLoggerWritesToFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "varstore-log-*.log")
	require.NoError(t, err)
	path := f.Name()
	require.NoError(t, f.Close())

	l, err := logger.InitializeLogger(logger.LogLevelTrace, path)
	require.NoError(t, err)

	l.Trace("trace message")
	l.Debug("debug message")
	l.Info("info message")
	l.Warning("warning message")
	l.Error(errors.New("boom"))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, contents)
}

func TestNilLoggerMethodsAreNoOps(t *testing.T) {
	var l *logger.Logger
	assert.NotPanics(t, func() {
		l.Trace("x")
		l.Debug("x")
		l.Info("x")
		l.Warning("x")
		l.Error(errors.New("x"))
	})
}

func TestPackageLevelHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Info("info")
		logger.Debug("debug")
		logger.Warn("warn")
		logger.Error("error")
	})
}
