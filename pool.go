package surgegate

import (
	"context"
	"time"
)

// workerPool admits queued requests under the concurrency ceiling of the
// current surge level and spawns one processing task per admission.
//
// Admission is strictly FIFO. The ceiling is re-read on every tick, so a
// level change gates future admissions only: tasks already in flight are
// never preempted or cancelled. The loop itself never blocks on a slow
// request; each admitted task releases its own slot on completion or
// failure.
type workerPool struct {
	tick      time.Duration
	queue     *admissionQueue
	metrics   *metrics
	processor *processor
	policy    AdmissionPolicy // nil: monitors stay advisory
}

func newWorkerPool(cfg Config, q *admissionQueue, m *metrics, p *processor, policy AdmissionPolicy) *workerPool {
	return &workerPool{
		tick:      cfg.AdmissionTick,
		queue:     q,
		metrics:   m,
		processor: p,
		policy:    policy,
	}
}

// run is the admission loop. One instance per coordinator.
func (w *workerPool) run(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.admit(ctx)
		}
	}
}

// admit opens one admission window: it computes the free slots under the
// current ceiling and pulls that many requests from the queue head.
func (w *workerPool) admit(ctx context.Context) {
	ceiling := w.ceiling()
	available := ceiling - w.metrics.activeCount()
	if available > 0 {
		for _, req := range w.queue.popN(available) {
			w.metrics.incActive()
			go w.processor.process(ctx, req)
		}
	}
	w.metrics.setQueueDepth(w.queue.depth())
}

// ceiling returns the admission limit for the current level, scaled by
// the optional policy multiplier. A positive multiplier never rounds the
// ceiling below one slot, so backpressure slows admission rather than
// deadlocking the queue.
func (w *workerPool) ceiling() int {
	limit := ConfigFor(w.metrics.currentLevel()).MaxConcurrent
	if w.policy == nil {
		return limit
	}

	snap := w.metrics.snapshot()
	mult := w.policy.AdmissionMultiplier(snap.ResourceState, snap.CadenceStability)
	if mult < 0 {
		mult = 0
	}
	if mult > 1 {
		mult = 1
	}
	scaled := int(float64(limit) * mult)
	if scaled < 1 && mult > 0 {
		scaled = 1
	}
	return scaled
}
