package logger

import "go.uber.org/zap/zapcore"

// -v counts. They pick output categories (output.go) as well as the zap level.
const (
	VerbosityUser  = 0 // outcomes, results, errors
	VerbosityInfo  = 1 // -v: startup, config, steps
	VerbosityDebug = 2 // -vv: timing, selectors, SQL
	VerbosityTrace = 3 // -vvv: raw browser events
)

// VerbosityToLevel maps a -v count to a zap level. Info is the floor because
// per-contract outcome lines are info entries and must always show.
func VerbosityToLevel(verbosity int) zapcore.Level {
	if verbosity >= VerbosityDebug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

var levelNames = [...]string{
	VerbosityUser:  "User",
	VerbosityInfo:  "Info (-v)",
	VerbosityDebug: "Debug (-vv)",
	VerbosityTrace: "Trace (-vvv)",
}

// LevelName is the label shown in the startup banner.
func LevelName(verbosity int) string {
	switch {
	case verbosity < 0:
		return "Unknown"
	case verbosity < len(levelNames):
		return levelNames[verbosity]
	default:
		return "Trace (-vvv+)"
	}
}
