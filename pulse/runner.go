package pulse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/logger"
)

// Processor handles one contract. It must not block past its own step
// timeouts.
type Processor interface {
	Process(ctx context.Context, id contract.ID) contract.Outcome
}

// Recorder persists each outcome as soon as it is known (the checkpoint).
type Recorder interface {
	Record(ctx context.Context, runID string, o contract.Outcome) error
}

// Runner iterates a plan through a Processor, strictly one contract at a
// time in one session.
type Runner struct {
	proc     Processor
	recorder Recorder
	emitter  ProgressEmitter
	limiter  *rate.Limiter
	runID    string
	logger   *zap.SugaredLogger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRecorder records every outcome, typically in the checkpoint store.
func WithRecorder(r Recorder) RunnerOption {
	return func(rn *Runner) { rn.recorder = r }
}

// WithEmitter sets the progress emitter.
func WithEmitter(e ProgressEmitter) RunnerOption {
	return func(rn *Runner) { rn.emitter = e }
}

// WithMinInterval spaces contract starts at least d apart. Zero disables
// pacing.
func WithMinInterval(d time.Duration) RunnerOption {
	return func(rn *Runner) {
		if d > 0 {
			rn.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			rn.limiter = nil
		}
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) RunnerOption {
	return func(rn *Runner) { rn.runID = id }
}

// NewRunner returns a runner over p.
func NewRunner(p Processor, opts ...RunnerOption) *Runner {
	r := &Runner{
		proc:    p,
		emitter: nopEmitter{},
		runID:   uuid.NewString(),
		logger:  logger.AddPulseSymbol(logger.ComponentLogger("pulse.runner")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID identifies this run in the checkpoint history.
func (r *Runner) RunID() string { return r.runID }

// Run processes plan in order and returns every outcome produced.
//
// The stop token is checked before each contract; once set, no new contract
// starts and the outcomes so far are returned. A cancelled ctx sets the token.
// A panic escaping the processor becomes an ERROR outcome with zero duration
// and the batch continues. There are no retries.
func (r *Runner) Run(ctx context.Context, plan []contract.ID, stop *StopToken) *contract.Log {
	log := contract.NewLog()
	total := len(plan)
	started := time.Now()
	rlog := r.logger.With(logger.FieldRunID, r.runID)

	r.emitter.EmitStage("run", fmt.Sprintf("processing %d contracts", total))
	rlog.Infow("Batch started", logger.FieldTotal, total)

	if stop == nil {
		stop = NewStopToken()
	}
	halted := func() bool {
		if ctx.Err() != nil {
			stop.Stop("context cancelled")
		}
		return stop.Stopped()
	}

	for i, id := range plan {
		if !halted() && r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				stop.Stop("context cancelled")
			}
		}
		if halted() {
			rlog.Infow("Batch stopped before contract",
				logger.FieldContractID, string(id),
				logger.FieldIndex, i+1,
				logger.FieldReason, stop.Reason(),
			)
			break
		}

		o := r.processOne(ctx, id)
		log.Append(o)

		if r.recorder != nil {
			// The outcome already happened; record it even if the run is being aborted
			if err := r.recorder.Record(context.WithoutCancel(ctx), r.runID, o); err != nil {
				rlog.Errorw("Failed to record outcome, continuing",
					logger.FieldContractID, string(id),
					logger.FieldError, err.Error(),
				)
				r.emitter.EmitError("checkpoint", err)
			}
		}

		rlog.Infow("Contract finished",
			logger.FieldContractID, string(o.ID),
			logger.FieldStatus, o.Status.String(),
			logger.FieldDurationMS, o.Duration.Milliseconds(),
			logger.FieldIndex, i+1,
		)
		r.emitter.EmitOutcome(i+1, total, o)
	}

	summary := map[string]interface{}{
		"run_id":    r.runID,
		"planned":   total,
		"processed": log.Len(),
		"stopped":   stop.Stopped(),
		"elapsed":   time.Since(started).Round(time.Second).String(),
	}
	if stop.Stopped() {
		summary["reason"] = stop.Reason()
	}
	r.emitter.EmitComplete(summary)
	rlog.Infow("Batch finished",
		logger.FieldCount, log.Len(),
		logger.FieldTotal, total,
		"stopped", stop.Stopped(),
	)
	return log
}

func (r *Runner) processOne(ctx context.Context, id contract.ID) (o contract.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("Processor panicked",
				logger.FieldContractID, string(id),
				logger.FieldError, fmt.Sprint(rec),
			)
			o = contract.NewOutcome(id, contract.Error, 0, "")
		}
	}()
	ctx = logger.WithContractID(logger.WithRunID(ctx, r.runID), string(id))
	return r.proc.Process(ctx, id)
}
