package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - Results, per-contract outcomes, errors with hints, summary
//	1 (-v)      - + Startup banner, config summary, step-by-step progress
//	2 (-vv)     - + Timing, selectors, database statistics
//	3 (-vvv)    - + Browser events (downloads, navigation)

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Command output, plans, reports
	OutputErrors                        // Errors with hints
	OutputOutcomes                      // One line per processed contract

	// Level 1 (-v) - Informational
	OutputStartup // Startup banner, resolved paths
	OutputConfig  // Config values loaded
	OutputSteps   // Individual state machine steps

	// Level 2 (-vv) - Detailed
	OutputTiming  // Per-step timing
	OutputDBStats // Checkpoint and migration details

	// Level 3 (-vvv) - Trace
	OutputBrowserEvents // Download progress and navigation events
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:  VerbosityUser,
	OutputErrors:   VerbosityUser,
	OutputOutcomes: VerbosityUser,

	OutputStartup: VerbosityInfo,
	OutputConfig:  VerbosityInfo,
	OutputSteps:   VerbosityInfo,

	OutputTiming:  VerbosityDebug,
	OutputDBStats: VerbosityDebug,

	OutputBrowserEvents: VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, require the highest verbosity
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
