package surgegate

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sampler supplies host utilization percentages in [0,100].
// The production implementation reads from the OS via gopsutil; tests
// inject deterministic fakes.
type Sampler interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
}

// HostSampler samples the local machine.
type HostSampler struct{}

func (HostSampler) CPUPercent(ctx context.Context) (float64, error) {
	// Non-blocking sample: percentage since the previous call.
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

func (HostSampler) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// ResourceMonitor periodically samples host utilization and publishes
// max(cpu, memory) as a fraction into the shared metrics record.
//
// The monitor is advisory: it logs a warning when pressure reaches the
// critical or emergency state but does not throttle admission itself.
// Closed-loop backpressure, when wanted, goes through an AdmissionPolicy.
type ResourceMonitor struct {
	sampler  Sampler
	interval time.Duration
	metrics  *metrics
	logger   *slog.Logger

	lastState ResourceState
}

func newResourceMonitor(cfg Config, sampler Sampler, m *metrics, logger *slog.Logger) *ResourceMonitor {
	if sampler == nil {
		sampler = HostSampler{}
	}
	return &ResourceMonitor{
		sampler:  sampler,
		interval: cfg.MonitorInterval,
		metrics:  m,
		logger:   logger,
	}
}

// State classifies the most recently published utilization.
func (r *ResourceMonitor) State() ResourceState {
	return ClassifyResource(r.metrics.snapshot().ResourceUtilization)
}

// Run samples on a fixed tick until the context is cancelled.
// Sampling errors are logged and the tick skipped; the monitor never
// takes the coordinator down.
func (r *ResourceMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sample(ctx)
		}
	}
}

func (r *ResourceMonitor) sample(ctx context.Context) {
	cpuPct, err := r.sampler.CPUPercent(ctx)
	if err != nil {
		r.logger.Error("cpu sampling failed", "err", err)
		return
	}
	memPct, err := r.sampler.MemoryPercent(ctx)
	if err != nil {
		r.logger.Error("memory sampling failed", "err", err)
		return
	}

	utilization := cpuPct
	if memPct > utilization {
		utilization = memPct
	}
	utilization /= 100.0
	r.metrics.setUtilization(utilization)

	// Log pressure on state transitions only, not on every tick.
	state := ClassifyResource(utilization)
	if state != r.lastState {
		switch {
		case state >= ResourceCritical:
			r.logger.Warn("system resources under pressure",
				"state", state.String(),
				"utilization", utilization,
				"cpu_percent", cpuPct,
				"memory_percent", memPct)
		case r.lastState >= ResourceCritical:
			r.logger.Info("system resource pressure eased",
				"state", state.String(),
				"utilization", utilization)
		}
	}
	r.lastState = state
}
