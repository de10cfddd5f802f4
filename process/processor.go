package process

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
)

const screenshotTimeout = 15 * time.Second

// Processor runs the per-contract state machine over a Gateway.
//
// Steps run strictly in order, each gated on the previous one. Whatever the
// branch, the session is sent home afterwards; a failure there is logged and
// never changes the recorded status.
type Processor struct {
	gw             Gateway
	logger         *zap.SugaredLogger
	now            func() time.Time
	homeOnNotFound bool
	screenshots    bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for step events.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithLegacyNotFound skips home navigation after NOT_FOUND, reproducing the
// older behaviour where that branch returned early. The next contract then
// starts from the search results page.
func WithLegacyNotFound() Option {
	return func(p *Processor) { p.homeOnNotFound = false }
}

// WithScreenshots captures the page on failure branches other than NOT_FOUND
// when the gateway implements Snapshotter.
func WithScreenshots(enabled bool) Option {
	return func(p *Processor) { p.screenshots = enabled }
}

// New returns a processor over gw.
func New(gw Gateway, opts ...Option) *Processor {
	p := &Processor{
		gw:             gw,
		logger:         logger.ComponentLogger("process"),
		now:            time.Now,
		homeOnNotFound: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process drives id through every step and returns its outcome. It never
// panics and never returns StatusUnknown.
func (p *Processor) Process(ctx context.Context, id contract.ID) contract.Outcome {
	// run_id arrives through ctx when a runner drives the processor
	log := logger.ChildLogger(p.logger, logger.FieldsFromContext(logger.WithContractID(ctx, string(id)))...)
	start := p.now()

	status, path := p.steps(ctx, id, log)

	if status != contract.NotFound || p.homeOnNotFound {
		p.navigateHome(ctx, log)
	}

	return contract.NewOutcome(id, status, p.now().Sub(start), path)
}

func (p *Processor) steps(ctx context.Context, id contract.ID, log *zap.SugaredLogger) (contract.Status, string) {
	if fault, err := p.call(ctx, StepSearch, log, func() error {
		return p.gw.Search(ctx, id)
	}); err != nil {
		return p.fail(ctx, id, StepSearch, err, fault, log), ""
	}

	if fault, err := p.call(ctx, StepOpen, log, func() error {
		return p.gw.Open(ctx, id)
	}); err != nil {
		if !fault && errors.IsNotFoundError(err) {
			log.Infow("Contract not found", logger.FieldStep, StepOpen.String())
			return contract.NotFound, ""
		}
		return p.fail(ctx, id, StepOpen, err, fault, log), ""
	}

	if fault, err := p.call(ctx, StepAccessDocuments, log, func() error {
		return p.gw.AccessDocuments(ctx, id)
	}); err != nil {
		return p.fail(ctx, id, StepAccessDocuments, err, fault, log), ""
	}

	var path string
	fault, err := p.call(ctx, StepDownload, log, func() error {
		var err error
		path, err = p.gw.DownloadDocuments(ctx, id)
		return err
	})
	switch {
	case err != nil && !fault && errors.IsNoFilesError(err):
		log.Infow("Contract has no documents", logger.FieldReason, err.Error())
		return contract.NoFiles, ""
	case err != nil:
		return p.fail(ctx, id, StepDownload, err, fault, log), ""
	case path == "":
		return p.fail(ctx, id, StepDownload, errors.New("download reported success without a file"), false, log), ""
	}

	return contract.Processed, path
}

// call runs one step. fault is true when the step panicked, or failed while
// ctx was already cancelled: neither is an ordinary step failure.
func (p *Processor) call(ctx context.Context, step Step, log *zap.SugaredLogger, fn func() error) (fault bool, err error) {
	started := p.now()
	defer func() {
		if r := recover(); r != nil {
			err = errors.AssertionFailedf("panic in %s step: %v", step, r)
			fault = true
		}
		log.Debugw("Step finished",
			logger.FieldStep, step.String(),
			logger.FieldDurationMS, p.now().Sub(started).Milliseconds(),
			"ok", err == nil,
		)
	}()

	err = fn()
	if err != nil && ctx.Err() != nil {
		return true, errors.Wrapf(err, "%s interrupted", step)
	}
	return false, err
}

func (p *Processor) fail(ctx context.Context, id contract.ID, step Step, err error, fault bool, log *zap.SugaredLogger) contract.Status {
	status := step.failure()
	if fault {
		status = status.AsFault()
	}

	log.Warnw("Contract step failed",
		logger.FieldStep, step.String(),
		logger.FieldStatus, status.String(),
		logger.FieldError, err.Error(),
	)

	p.screenshot(ctx, id, step, log)
	return status
}

func (p *Processor) screenshot(ctx context.Context, id contract.ID, step Step, log *zap.SugaredLogger) {
	if !p.screenshots {
		return
	}
	snap, ok := p.gw.(Snapshotter)
	if !ok {
		return
	}

	// Capture even when the run is being aborted; the page state is the
	// only record of what went wrong.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Warnw("Screenshot panicked", logger.FieldStep, step.String(), logger.FieldError, fmt.Sprint(r))
		}
	}()

	path, err := snap.Screenshot(sctx, id, step)
	if err != nil {
		log.Warnw("Screenshot failed", logger.FieldStep, step.String(), logger.FieldError, err.Error())
		return
	}
	log.Infow("Screenshot saved", logger.FieldStep, step.String(), logger.FieldPath, path)
}

func (p *Processor) navigateHome(ctx context.Context, log *zap.SugaredLogger) {
	fault, err := p.call(ctx, StepNavigateHome, log, func() error {
		return p.gw.NavigateHome(ctx)
	})
	if err != nil {
		log.Warnw("Navigate home failed, status unchanged",
			logger.FieldError, err.Error(),
			"fault", fault,
		)
	}
}
