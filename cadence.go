package surgegate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CadenceMonitor tracks whether recent processing throughput meets a
// target rate and maintains a bounded stability score in [0,1].
//
// Each processed request reports its processing instant via Observe.
// On every window tick the monitor derives the observed frequency
// (samples per second over the window) and applies an asymmetric update:
//
//   - below the safe minimum: stability decays multiplicatively (×0.9)
//   - at or above the target: stability recovers additively (+0.1, capped)
//   - in between: unchanged
//
// The decay is multiplicative so a stall bleeds confidence quickly, while
// recovery is linear: the score only climbs back through sustained
// on-target throughput. The score is advisory; it does not gate admission
// unless an AdmissionPolicy chooses to read it.
type CadenceMonitor struct {
	safeMinimum float64 // samples/sec below which stability decays
	target      float64 // samples/sec at which stability recovers
	window      time.Duration

	mu      sync.Mutex
	samples int

	metrics *metrics
	logger  *slog.Logger
}

func newCadenceMonitor(cfg Config, m *metrics, logger *slog.Logger) *CadenceMonitor {
	return &CadenceMonitor{
		safeMinimum: cfg.SafeMinimumRate,
		target:      cfg.TargetRate,
		window:      cfg.CadenceWindow,
		metrics:     m,
		logger:      logger,
	}
}

// Observe records one processing instant into the current window.
func (c *CadenceMonitor) Observe(time.Time) {
	c.mu.Lock()
	c.samples++
	c.mu.Unlock()
}

// Stability returns the current bounded stability score.
func (c *CadenceMonitor) Stability() float64 {
	return c.metrics.currentStability()
}

// Reset clears the window and restores full stability. Part of the
// drain protocol.
func (c *CadenceMonitor) Reset() {
	c.mu.Lock()
	c.samples = 0
	c.mu.Unlock()
	c.metrics.setStability(1.0)
}

// Run drives the window ticks until the context is cancelled.
func (c *CadenceMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(c.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick closes the current window and applies the stability update rule.
// A zero-sample window counts as zero frequency and decays the score.
func (c *CadenceMonitor) tick() {
	c.mu.Lock()
	observed := float64(c.samples) / c.window.Seconds()
	c.samples = 0
	c.mu.Unlock()

	stability := c.metrics.currentStability()
	switch {
	case observed >= c.target:
		stability += 0.1
	case observed < c.safeMinimum:
		stability *= 0.9
	}
	c.metrics.setStability(stability)

	if observed > 0 && observed < c.safeMinimum {
		c.logger.Warn("processing cadence below safe minimum",
			"observed_per_sec", observed,
			"safe_minimum", c.safeMinimum,
			"stability", c.metrics.currentStability())
	}
}
