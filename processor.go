package surgegate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// The staged sub-processing pipeline runs these four stages in order for
// every admitted request.
var processingStages = [...]string{
	"observer",
	"analytical",
	"experiential",
	"bridge",
}

// WorkUnit executes one named stage of a request. Implementations carry
// the actual computation or I/O; the pipeline only sequences them.
// A WorkUnit must be safe for concurrent Execute calls.
type WorkUnit interface {
	Execute(ctx context.Context, req Request, stage string) error
}

// WorkFunc adapts a plain function to the WorkUnit interface.
type WorkFunc func(ctx context.Context, req Request, stage string) error

func (f WorkFunc) Execute(ctx context.Context, req Request, stage string) error {
	return f(ctx, req, stage)
}

// SimulatedWork is the default stand-in work unit: each stage sleeps for
// BaseDelay scaled by the request's complexity. Useful for demos, load
// drivers and tests; production callers substitute their own WorkUnit.
type SimulatedWork struct {
	BaseDelay time.Duration // per-stage delay at complexity 1.0
}

func (w SimulatedWork) Execute(ctx context.Context, req Request, _ string) error {
	delay := w.BaseDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	delay = time.Duration(float64(delay) * req.Complexity)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// processor runs the per-request pipeline. It shares no mutable state
// with concurrent tasks except the guarded metrics record and the
// cadence window.
type processor struct {
	work       WorkUnit
	cadence    *CadenceMonitor
	metrics    *metrics
	logger     *slog.Logger
	onComplete func(CompletionEvent)
}

// process is the task boundary: one goroutine per admitted request.
// Every outcome, including a panic inside a stage, is converted into a
// completion or failure on the metrics record; nothing propagates to the
// coordinator.
func (p *processor) process(ctx context.Context, req Request) {
	start := time.Now()
	var failed bool

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("request task panicked",
				"request_id", req.ID, "panic", fmt.Sprint(r))
			failed = true
		}
		duration := time.Since(start)
		if failed {
			p.metrics.recordFailure()
		}
		if p.onComplete != nil {
			p.onComplete(CompletionEvent{ID: req.ID, Success: !failed, Duration: duration})
		}
	}()

	if err := p.run(ctx, req, start); err != nil {
		var pv *PolicyViolationError
		if errors.As(err, &pv) {
			p.logger.Warn("request rejected by policy",
				"request_id", req.ID, "constraint", pv.Constraint)
		} else {
			p.logger.Error("request processing failed",
				"request_id", req.ID, "err", err)
		}
		failed = true
		return
	}
}

// run executes the four ordered phases.
func (p *processor) run(ctx context.Context, req Request, start time.Time) error {
	// Phase 1: policy validation.
	if err := p.validatePolicy(req); err != nil {
		return err
	}

	// Phase 2: cadence sync.
	p.cadence.Observe(time.Now())

	// Phase 3: staged sub-processing.
	for _, stage := range processingStages {
		if err := p.work.Execute(ctx, req, stage); err != nil {
			return fmt.Errorf("stage %s: %w", stage, err)
		}
	}

	// Phase 4: completion. Declining integration is not a failure: the
	// request leaves the active set cleanly but its duration is not
	// representative work and stays out of the rolling average.
	if !req.Policy.Allows(ConstraintIntegrationConsent) {
		p.logger.Info("request declined integration", "request_id", req.ID)
		p.metrics.recordCompletion(time.Since(start), false)
		return nil
	}

	duration := time.Since(start)
	p.logger.Debug("request complete", "request_id", req.ID, "duration", duration)
	p.metrics.recordCompletion(duration, true)
	return nil
}

// validatePolicy enforces the admission constraints. Any violation
// increments the shared counter and aborts only this request.
func (p *processor) validatePolicy(req Request) error {
	for _, key := range []string{ConstraintConsentVerified, ConstraintBoundariesRespected} {
		if !req.Policy.Allows(key) {
			p.metrics.recordViolation()
			return &PolicyViolationError{RequestID: req.ID, Constraint: key}
		}
	}
	return nil
}
