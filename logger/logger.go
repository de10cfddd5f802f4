package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool

	// daily is the open daily log file, if any
	daily *DailyFile
)

func init() {
	// Safe no-op logger until Initialize runs, so packages can log in tests
	Logger = zap.NewNop().Sugar()
}

// Options controls how Initialize builds the global logger
type Options struct {
	JSON      bool   // machine-readable console output
	Verbosity int    // -v count, see VerbosityToLevel
	LogDir    string // directory for the daily process log; empty disables it
	Theme     string // console color theme: everforest, gruvbox
}

// Initialize sets up the global logger.
//
// Console output goes to stdout with the minimal encoder (or zap's production
// JSON encoder). When LogDir is set, every entry at info level and above is
// also appended to the daily process log regardless of console verbosity.
func Initialize(opts Options) error {
	JSONOutput = opts.JSON
	if opts.Theme != "" {
		SetTheme(opts.Theme)
	} else if theme := os.Getenv("HARVEST_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}

	level := VerbosityToLevel(opts.Verbosity)

	var console zapcore.Core
	if opts.JSON {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		console = zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stdout), level)
	} else {
		// Human-readable console output with minimal, calm formatting
		console = zapcore.NewCore(newMinimalEncoder(), zapcore.AddSync(os.Stdout), level)
	}

	cores := []zapcore.Core{console}
	if opts.LogDir != "" {
		df, err := OpenDailyFile(opts.LogDir)
		if err != nil {
			return err
		}
		closeDaily()
		daily = df
		cores = append(cores, zapcore.NewCore(newFileEncoder(), zapcore.AddSync(df), zap.InfoLevel))
	}

	Logger = zap.New(zapcore.NewTee(cores...)).Sugar()
	return nil
}

// DailyLogPath returns the path of the current daily log file, or "" when
// file logging is disabled
func DailyLogPath() string {
	if daily == nil {
		return ""
	}
	return daily.Path()
}

// Cleanup flushes any buffered log entries and closes the daily log file
func Cleanup() {
	if Logger != nil {
		Logger.Sync()
	}
	closeDaily()
}

func closeDaily() {
	if daily != nil {
		daily.Close()
		daily = nil
	}
}

// Info logs an info message
func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

// Infof logs a formatted info message
func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
