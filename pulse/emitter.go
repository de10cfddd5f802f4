package pulse

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/logger"
	"github.com/teranos/harvest/sym"
)

// CLIEmitter outputs pretty-printed progress to terminal using pterm
type CLIEmitter struct {
	verbosity int
}

// NewCLIEmitter creates a CLI progress emitter for terminal output
func NewCLIEmitter(verbosity int) *CLIEmitter {
	return &CLIEmitter{verbosity: verbosity}
}

// EmitStage prints a stage announcement to terminal
func (e *CLIEmitter) EmitStage(stage string, message string) {
	pterm.Printf("%s %s: %s\n", sym.Pulse, pterm.LightCyan(stage), message)
}

// EmitProgress prints a progress count
func (e *CLIEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	if itemType, ok := metadata["type"].(string); ok {
		pterm.Printf("  %s %s\n", pterm.Green(fmt.Sprintf("%d", count)), itemType)
	} else {
		pterm.Printf("  %s items\n", pterm.Green(fmt.Sprintf("%d", count)))
	}
}

// EmitOutcome prints one line per finished contract
func (e *CLIEmitter) EmitOutcome(index, total int, o contract.Outcome) {
	status := pterm.Red(o.Status.String())
	if o.Status.Succeeded() {
		status = pterm.Green(o.Status.String())
	}
	line := fmt.Sprintf("[%d/%d] %s %s %.2fs", index, total, pterm.Bold.Sprint(o.ID.String()), status, o.Seconds())
	if o.FilePath != "" && logger.ShouldOutput(e.verbosity, logger.OutputSteps) {
		line += " " + pterm.Gray(o.FilePath)
	}
	pterm.Println(line)
}

// EmitComplete prints the completion summary
func (e *CLIEmitter) EmitComplete(summary map[string]interface{}) {
	if stopped, _ := summary["stopped"].(bool); stopped {
		pterm.Warning.Printf("%s Batch stopped: %v\n", sym.PulseClose, summary["reason"])
	} else {
		pterm.Success.Println("Batch complete")
	}
	if e.verbosity >= logger.VerbosityInfo {
		keys := make([]string, 0, len(summary))
		for k := range summary {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pterm.Printf("  %s: %v\n", k, summary[k])
		}
	}
}

// EmitError prints an error
func (e *CLIEmitter) EmitError(stage string, err error) {
	pterm.Error.Printf("Error in %s: %v\n", stage, err)
}

// EmitInfo prints informational message
func (e *CLIEmitter) EmitInfo(message string) {
	if e.verbosity >= logger.VerbosityInfo {
		pterm.Info.Println(message)
	}
}

// ProgressEvent represents a structured JSON progress event
type ProgressEvent struct {
	Type      string                 `json:"type"`      // "stage", "progress", "outcome", "complete", "error", "info"
	Timestamp time.Time              `json:"timestamp"` // When this event occurred
	Data      map[string]interface{} `json:"data"`      // Event-specific data
}

// JSONEmitter writes one JSON event per line
type JSONEmitter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	now     func() time.Time
}

// NewJSONEmitter creates a JSON emitter writing to stdout
func NewJSONEmitter() *JSONEmitter {
	return NewJSONEmitterTo(os.Stdout)
}

// NewJSONEmitterTo creates a JSON emitter writing to w
func NewJSONEmitterTo(w io.Writer) *JSONEmitter {
	return &JSONEmitter{encoder: json.NewEncoder(w), now: time.Now}
}

func (e *JSONEmitter) emit(kind string, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.encoder.Encode(ProgressEvent{Type: kind, Timestamp: e.now(), Data: data})
}

// EmitStage emits a stage event as JSON
func (e *JSONEmitter) EmitStage(stage string, message string) {
	e.emit("stage", map[string]interface{}{
		"stage":   stage,
		"message": message,
	})
}

// EmitProgress emits a progress event as JSON
func (e *JSONEmitter) EmitProgress(count int, metadata map[string]interface{}) {
	data := map[string]interface{}{"count": count}
	for k, v := range metadata {
		data[k] = v
	}
	e.emit("progress", data)
}

// EmitOutcome emits one finished contract as JSON
func (e *JSONEmitter) EmitOutcome(index, total int, o contract.Outcome) {
	e.emit("outcome", map[string]interface{}{
		"index":       index,
		"total":       total,
		"contract_id": o.ID.String(),
		"status":      o.Status.String(),
		"duration":    o.Seconds(),
		"file_path":   o.FilePath,
	})
}

// EmitComplete emits a completion event as JSON
func (e *JSONEmitter) EmitComplete(summary map[string]interface{}) {
	e.emit("complete", summary)
}

// EmitError emits an error event as JSON
func (e *JSONEmitter) EmitError(stage string, err error) {
	e.emit("error", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

// EmitInfo emits an informational event as JSON
func (e *JSONEmitter) EmitInfo(message string) {
	e.emit("info", map[string]interface{}{"message": message})
}
