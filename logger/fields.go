package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field keys shared by every package. The minimal console encoder renders
// the well-known ones (contract_id, status, duration_ms, ...) as bare values.
const (
	FieldRunID      = "run_id"
	FieldContractID = "contract_id"
	FieldInput      = "input" // input sheet or raw argument

	FieldStep = "step" // SEARCH, OPEN, ACCESS_DOCUMENTS, DOWNLOAD, NAVIGATE_HOME
	FieldURL  = "url"

	FieldDurationMS = "duration_ms"
	FieldElapsed    = "elapsed"

	FieldError  = "error"
	FieldReason = "reason" // why a batch stopped or a step was skipped

	FieldCount    = "count"
	FieldIndex    = "index" // 1-based position in the batch
	FieldTotal    = "total"
	FieldQuantity = "quantity"

	FieldStatus = "status"

	FieldFile = "file"
	FieldPath = "path"

	FieldSymbol = "symbol"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	contractIDKey
)

// WithRunID tags ctx with the batch run id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithContractID tags ctx with the contract in flight.
func WithContractID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contractIDKey, id)
}

// FieldsFromContext returns the run and contract tags of ctx as key-value
// pairs for the *w logging methods.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		fields = append(fields, FieldRunID, v)
	}
	if v, ok := ctx.Value(contractIDKey).(string); ok && v != "" {
		fields = append(fields, FieldContractID, v)
	}
	return fields
}

// ComponentLogger returns the global logger named after a component, e.g.
// "pulse.runner". Loggers are taken at construction time, so Initialize must
// run before the component is built for its output to reach the console.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger adds fields to parent.
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
