// Package logging configures zerolog for changepack. Console output goes to
// stderr at the level picked by -v; every run is also appended to a log file
// under the XDG state directory at full detail.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arthur-debert/changepack/pkg/errors"
)

const (
	appDirName  = "changepack"
	logFileName = "changepack.log"
)

// levels maps -v counts to console levels; anything above is trace
var levels = []zerolog.Level{zerolog.WarnLevel, zerolog.InfoLevel, zerolog.DebugLevel}

// Options controls Setup
type Options struct {
	Verbosity int
	// Console receives human-readable output; nil means stderr
	Console io.Writer
	// LogFile is appended to; empty means LogFilePath(), "-" disables it
	LogFile string
}

// LevelFor returns the console level for a verbosity count
func LevelFor(verbosity int) zerolog.Level {
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity < len(levels) {
		return levels[verbosity]
	}
	return zerolog.TraceLevel
}

// SetupLogger configures the global logger for the CLI from the -v count
func SetupLogger(verbosity int) {
	if err := Setup(Options{Verbosity: verbosity}); err != nil {
		log.Warn().Err(err).Msg("Failed to open log file, logging to console only")
	}
}

// Setup replaces the global logger. The console gets the verbosity's level,
// the log file gets debug and above. A log file that cannot be opened is
// reported but the console logger is still installed.
func Setup(opts Options) error {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleLevel := LevelFor(opts.Verbosity)

	writers := []io.Writer{
		levelWriter{
			Writer: zerolog.ConsoleWriter{
				Out:        console,
				TimeFormat: time.Kitchen,
				NoColor:    os.Getenv("NO_COLOR") != "",
			},
			min: consoleLevel,
		},
	}

	var fileErr error
	path := opts.LogFile
	if path == "" {
		path = LogFilePath()
	}
	if path != "-" {
		f, err := openLogFile(path)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, levelWriter{Writer: f, min: zerolog.DebugLevel})
		}
	}

	global := consoleLevel
	if len(writers) > 1 && zerolog.DebugLevel < global {
		global = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(global)

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if opts.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	log.Debug().Int("verbosity", opts.Verbosity).Str("logFile", path).Msg("Logger initialized")
	return fileErr
}

// levelWriter drops events below min
type levelWriter struct {
	io.Writer
	min zerolog.Level
}

func (w levelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < w.min {
		return len(p), nil
	}
	return w.Write(p)
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// ForRun tags a logger with the id of a packaging run so the log file can be
// filtered per run
func ForRun(logger zerolog.Logger, runID, spec string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Str("spec", spec).Logger()
}

// LogFilePath returns $XDG_STATE_HOME/changepack/changepack.log
func LogFilePath() string {
	xdg.Reload()
	return filepath.Join(xdg.StateHome, appDirName, logFileName)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create log directory %s", filepath.Dir(path))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileCreate, "failed to open log file %s", path)
	}
	return f, nil
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().
		Str("operation", operation).
		Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
