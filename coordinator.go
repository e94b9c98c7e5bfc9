package surgegate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State is the coordinator lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateActive
	StateEmergencyDrain
)

var stateNames = [...]string{"idle", "active", "emergency_drain"}

func (s State) String() string {
	if s < StateIdle || s > StateEmergencyDrain {
		return "unknown"
	}
	return stateNames[s]
}

// ErrDraining is returned by SubmitBatch while a drain is in progress.
var ErrDraining = errors.New("surgegate: coordinator is draining")

// Result aggregates the outcome of one submitted batch.
//
// A timed-out batch is a partial success, not an error: SuccessRate
// reports the fraction that finished and TimedOut is set.
type Result struct {
	Level            SurgeLevel
	TotalRequests    int
	Duration         time.Duration
	Throughput       float64 // requests per second over the wait
	SuccessRate      float64
	CadenceStable    bool
	PolicyViolations int64
	PeakUtilization  float64

	Completed int64 // completions attributable to this wait
	Failed    int64 // failures attributable to this wait
	Rejected  int   // overflow tail refused by a bounded queue
	TimedOut  bool
}

// Coordinator orchestrates the surge admission subsystem: the FIFO
// admission queue, the worker pool, the resource and cadence monitors,
// and the drain protocol. Construct one explicitly with New and share it
// by reference; there is no package-level instance.
type Coordinator struct {
	cfg    Config
	logger *slog.Logger

	metrics  *metrics
	queue    *admissionQueue
	cadence  *CadenceMonitor
	resource *ResourceMonitor
	pool     *workerPool

	sampler Sampler
	work    WorkUnit
	policy  AdmissionPolicy
	onDone  func(CompletionEvent)

	state     atomic.Int32
	startOnce sync.Once
	cancel    context.CancelFunc
}

// Option customizes a Coordinator's collaborators.
type Option func(*Coordinator)

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithSampler replaces the host resource sampler, typically with a fake
// in tests.
func WithSampler(s Sampler) Option { return func(c *Coordinator) { c.sampler = s } }

// WithWorkUnit substitutes the staged work executed per request.
func WithWorkUnit(w WorkUnit) Option { return func(c *Coordinator) { c.work = w } }

// WithAdmissionPolicy installs closed-loop backpressure. Without one,
// the monitors remain advisory.
func WithAdmissionPolicy(p AdmissionPolicy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithCompletionHook registers a callback invoked once per finished
// request, success or failure. The hook runs on the request's goroutine
// and must not block.
func WithCompletionHook(fn func(CompletionEvent)) Option {
	return func(c *Coordinator) { c.onDone = fn }
}

// New constructs an idle coordinator. Background loops start on
// Initialize or lazily on the first SubmitBatch.
func New(cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
		work:   SimulatedWork{BaseDelay: time.Millisecond},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.metrics = newMetrics(c.cfg.SampleWindow)
	c.queue = newAdmissionQueue(c.cfg.MaxQueueDepth)
	c.cadence = newCadenceMonitor(c.cfg, c.metrics, c.logger)
	c.resource = newResourceMonitor(c.cfg, c.sampler, c.metrics, c.logger)

	proc := &processor{
		work:       c.work,
		cadence:    c.cadence,
		metrics:    c.metrics,
		logger:     c.logger,
		onComplete: c.onDone,
	}
	c.pool = newWorkerPool(c.cfg, c.queue, c.metrics, proc, c.policy)
	return c
}

// Initialize starts the three background loops: admission, resource
// sampling and cadence tracking. Safe to call more than once; loops run
// until Close.
func (c *Coordinator) Initialize(ctx context.Context) {
	c.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.cancel = cancel

		go c.pool.run(loopCtx)
		go c.resource.Run(loopCtx)
		go c.cadence.Run(loopCtx)

		c.state.CompareAndSwap(int32(StateIdle), int32(StateActive))
		c.logger.Info("surge capacity systems initialized",
			"admission_tick", c.cfg.AdmissionTick,
			"monitor_interval", c.cfg.MonitorInterval)
	})
}

// Close stops the background loops. In-flight requests still release
// their slots, but no further admissions happen.
func (c *Coordinator) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// State returns the current lifecycle phase.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Status returns a read-only copy of the shared metrics record.
func (c *Coordinator) Status() MetricsSnapshot {
	return c.metrics.snapshot()
}

// Advise derives an advisory scaling recommendation from current status.
func (c *Coordinator) Advise() Recommendation {
	return Recommend(c.Status())
}

// SubmitBatch classifies the batch, enqueues it and waits for completion,
// bounded by BaseTimeout + PerRequestTimeout × len(requests).
//
// The only error condition is submission during a drain. A timeout is
// reported through the Result, never as an error.
func (c *Coordinator) SubmitBatch(ctx context.Context, requests []Request) (Result, error) {
	if len(requests) == 0 {
		return Result{SuccessRate: 1.0, CadenceStable: true}, nil
	}
	if c.State() == StateEmergencyDrain {
		return Result{}, ErrDraining
	}
	c.Initialize(ctx)
	c.state.CompareAndSwap(int32(StateIdle), int32(StateActive))

	total := len(requests)
	level := Classify(total)
	c.metrics.setLevel(level)
	c.metrics.resetPeak()

	if level >= LevelCritical {
		c.logger.Warn("emergency protocols engaged",
			"level", level.String(), "requests", total)
	}
	c.logger.Info("handling surge",
		"level", level.String(),
		"requests", total,
		"max_concurrent", ConfigFor(level).MaxConcurrent)

	completedBefore, failedBefore := c.metrics.counters()

	rejected := len(c.queue.push(requests))
	c.metrics.setQueueDepth(c.queue.depth())
	if rejected > 0 {
		c.logger.Warn("queue capacity exceeded, overflow rejected",
			"rejected", rejected, "capacity", c.cfg.MaxQueueDepth)
	}

	timeout := c.cfg.BaseTimeout + time.Duration(total)*c.cfg.PerRequestTimeout
	start := time.Now()
	finished := c.awaitIdle(ctx, timeout)
	duration := time.Since(start)

	completedAfter, failedAfter := c.metrics.counters()
	snap := c.metrics.snapshot()

	res := Result{
		Level:            level,
		TotalRequests:    total,
		Duration:         duration,
		CadenceStable:    snap.CadenceStability > c.cfg.StableThreshold,
		PolicyViolations: snap.PolicyViolations,
		PeakUtilization:  c.metrics.peakUtilization(),
		Completed:        completedAfter - completedBefore,
		Failed:           failedAfter - failedBefore,
		Rejected:         rejected,
		TimedOut:         !finished,
	}
	if duration > 0 {
		res.Throughput = float64(total) / duration.Seconds()
	}
	if finished {
		res.SuccessRate = float64(total-rejected) / float64(total)
	}
	if !finished {
		remaining := c.queue.depth() + c.metrics.activeCount()
		done := total - rejected - remaining
		if done < 0 {
			done = 0
		}
		res.SuccessRate = float64(done) / float64(total)
	}
	return res, nil
}

// awaitIdle polls until both the queue and the active set are empty, or
// the bound elapses. Returns true when the system settled in time.
func (c *Coordinator) awaitIdle(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(c.cfg.CompletionPoll)
	defer ticker.Stop()

	for {
		if c.queue.depth() == 0 && c.metrics.activeCount() == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
