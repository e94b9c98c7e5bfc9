package surgegate

import (
	"context"
	"time"
)

// DrainResult reports the outcome of an emergency drain.
type DrainResult struct {
	Retained int           // high-priority requests kept in the queue
	Evicted  int           // low-priority requests dropped
	Drained  bool          // queue and active set emptied within the bound
	Duration time.Duration // time spent waiting for in-flight work
}

// Drain runs the emergency stabilization protocol:
//
//  1. Enter the EmergencyDrain state; new batches are refused.
//  2. Evict every queued request below the drain priority floor. The
//     survivors keep draining through the normal admission loop.
//  3. Wait, bounded by timeout, for the queue and active set to empty.
//     In-flight requests are never force-cancelled: they run to natural
//     completion or the wait simply times out.
//  4. Reset the metrics record and the cadence window, and return the
//     coordinator to Idle.
//
// Drain never returns an error; a timeout is reported through Drained.
func (c *Coordinator) Drain(ctx context.Context, timeout time.Duration) DrainResult {
	c.state.Store(int32(StateEmergencyDrain))
	c.logger.Warn("emergency drain initiated",
		"priority_floor", c.cfg.DrainPriorityFloor, "timeout", timeout)

	retained, evicted := c.queue.retainMinPriority(c.cfg.DrainPriorityFloor)
	c.metrics.setQueueDepth(c.queue.depth())

	start := time.Now()
	drained := c.awaitIdle(ctx, timeout)
	waited := time.Since(start)

	c.metrics.reset()
	c.cadence.Reset()
	c.state.Store(int32(StateIdle))

	if drained {
		c.logger.Info("emergency drain complete, system stabilized",
			"retained", retained, "evicted", evicted, "waited", waited)
	} else {
		c.logger.Warn("emergency drain timed out with work in flight",
			"retained", retained, "evicted", evicted, "waited", waited)
	}

	return DrainResult{
		Retained: retained,
		Evicted:  evicted,
		Drained:  drained,
		Duration: waited,
	}
}
