// Package pulse runs a planned batch of contracts one at a time, honoring a
// cooperative stop token, and reports progress as it goes.
package pulse

import (
	"github.com/teranos/harvest/contract"
)

// ProgressEmitter reports batch progress to the operator.
//
// Implementations:
//   - CLIEmitter: pterm output for terminals
//   - JSONEmitter: one JSON event per line for wrappers and log shippers
type ProgressEmitter interface {
	// EmitStage announces the start of a processing stage
	EmitStage(stage string, message string)

	// EmitProgress announces progress with a count and optional metadata
	EmitProgress(count int, metadata map[string]interface{})

	// EmitOutcome reports one finished contract; index is 1-based
	EmitOutcome(index, total int, o contract.Outcome)

	// EmitComplete announces the end of the batch with a summary
	EmitComplete(summary map[string]interface{})

	// EmitError announces an error during processing
	EmitError(stage string, err error)

	// EmitInfo emits general informational message
	EmitInfo(message string)
}

// nopEmitter discards everything.
type nopEmitter struct{}

func (nopEmitter) EmitStage(string, string)                 {}
func (nopEmitter) EmitProgress(int, map[string]interface{}) {}
func (nopEmitter) EmitOutcome(int, int, contract.Outcome)   {}
func (nopEmitter) EmitComplete(map[string]interface{})      {}
func (nopEmitter) EmitError(string, error)                  {}
func (nopEmitter) EmitInfo(string)                          {}
