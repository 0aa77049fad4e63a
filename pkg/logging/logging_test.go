package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{7, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestSetup_ConsoleAndFile(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "state", "changepack.log")

	require.NoError(t, Setup(Options{Verbosity: 0, Console: &console, LogFile: logPath}))

	logger := GetLogger("reconcile")
	logger.Debug().Str("server_path", "$/Shop/Main/a.txt").Msg("Skipped change")
	logger.Warn().Msg("Backup source missing")

	// console only shows warnings at verbosity 0
	assert.NotContains(t, console.String(), "Skipped change")
	assert.Contains(t, console.String(), "Backup source missing")

	// the file keeps debug detail
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Skipped change")
	assert.Contains(t, string(data), `"component":"reconcile"`)
}

func TestSetup_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Setup(Options{Verbosity: 3, Console: &console, LogFile: "-"}))
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())

	log.Trace().Msg("trace line")
	assert.Contains(t, console.String(), "trace line")
}

func TestSetup_UnwritableLogFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	var console bytes.Buffer
	err := Setup(Options{Console: &console, LogFile: filepath.Join(blocker, "changepack.log")})
	require.Error(t, err)

	// the console logger is installed anyway
	log.Warn().Msg("still logging")
	assert.Contains(t, console.String(), "still logging")
}

func TestLogFilePath(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	assert.Equal(t, filepath.Join(state, "changepack", "changepack.log"), LogFilePath())
}

func TestForRun(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := ForRun(zerolog.New(&buf), "run-1", "100~110")

	logger.Info().Msg("Packaged")
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
	assert.Contains(t, buf.String(), `"spec":"100~110"`)
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := LogOperationStart(logger, "verify")
	assert.Contains(t, buf.String(), "Operation started")

	done()
	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), `"operation":"verify"`)
}
