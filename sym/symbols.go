// Package sym defines the glyphs harvest uses to mark its subsystems in
// console output, log fields and command help.
package sym

// Command glyphs. Each one names a top-level harvest command.
const (
	AM    = "≡" // am: configuration
	IX    = "⨳" // plan: input sheets and batch planning
	Pulse = "꩜" // run: the batch runner
	DB    = "⊔" // checkpoint: resume state
	Doc   = "▤" // report: outcome reports
	Split = "⌗" // split: input partitioning
)

// System markers, not bound to a command.
const (
	PulseOpen  = "✿" // batch start, session login
	PulseClose = "❀" // stop requested, batch wound down
	Browser    = "◎" // portal session and browser events
)

// PaletteOrder is the order commands appear in help output.
var PaletteOrder = []string{Pulse, IX, DB, Doc, Split, AM}

// SymbolToCommand maps glyph strings to their command names.
var SymbolToCommand = map[string]string{
	Pulse: "run",
	IX:    "plan",
	DB:    "checkpoint",
	Doc:   "report",
	Split: "split",
	AM:    "am",
}

// CommandToSymbol maps command names to their glyphs.
var CommandToSymbol = map[string]string{
	"run":        Pulse,
	"plan":       IX,
	"checkpoint": DB,
	"report":     Doc,
	"split":      Split,
	"am":         AM,
}

// CommandDescriptions are one-line summaries used as cobra Short text.
var CommandDescriptions = map[string]string{
	"run":        "Download documents for the next batch of contracts",
	"plan":       "Show which contracts the next run would process",
	"checkpoint": "Inspect or edit the resume checkpoint",
	"report":     "Summarize an outcome report",
	"split":      "Split an input sheet into parts",
	"am":         "Show and validate configuration",
}

// Prefix returns the glyph for a command followed by a space, or "" for
// unknown commands.
func Prefix(command string) string {
	if s, ok := CommandToSymbol[command]; ok {
		return s + " "
	}
	return ""
}
