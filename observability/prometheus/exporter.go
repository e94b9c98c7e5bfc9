package prometheus

import (
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/alexshd/surgegate"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter publishes coordinator metrics snapshots as Prometheus
// collectors. Gauges mirror the snapshot; the histogram and outcome
// counters are fed per request through CompletionHook.
type MetricsExporter struct {
	surgeLevel          prom.Gauge
	activeRequests      prom.Gauge
	queueDepth          prom.Gauge
	resourceUtilization prom.Gauge
	cadenceStability    prom.Gauge
	policyViolations    prom.Gauge

	processingDuration prom.Histogram
	completedTotal     prom.Counter
	failedTotal        prom.Counter
}

// NewMetricsExporter creates and registers the collectors. An empty
// namespace defaults to "surgegate"; a nil registerer uses the default
// registry. Re-registering against the same registry returns the
// existing collectors instead of failing.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "surgegate"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	e := &MetricsExporter{
		surgeLevel: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "surge_level",
			Help:      "Current surge level (0=normal .. 4=emergency).",
		}),
		activeRequests: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "Requests currently being processed.",
		}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Pending requests awaiting admission.",
		}),
		resourceUtilization: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_utilization",
			Help:      "Host utilization fraction, max of cpu and memory.",
		}),
		cadenceStability: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "cadence_stability",
			Help:      "Bounded processing-cadence stability score in [0,1].",
		}),
		policyViolations: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "policy_violations",
			Help:      "Policy violations since the last drain reset.",
		}),
		processingDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Per-request processing duration in seconds.",
			Buckets:   buckets,
		}),
		completedTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "requests_completed_total",
			Help:      "Total requests finished successfully.",
		}),
		failedTotal: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "requests_failed_total",
			Help:      "Total requests that failed or violated policy.",
		}),
	}

	var err error
	if e.surgeLevel, err = registerCollector(reg, e.surgeLevel); err != nil {
		return nil, err
	}
	if e.activeRequests, err = registerCollector(reg, e.activeRequests); err != nil {
		return nil, err
	}
	if e.queueDepth, err = registerCollector(reg, e.queueDepth); err != nil {
		return nil, err
	}
	if e.resourceUtilization, err = registerCollector(reg, e.resourceUtilization); err != nil {
		return nil, err
	}
	if e.cadenceStability, err = registerCollector(reg, e.cadenceStability); err != nil {
		return nil, err
	}
	if e.policyViolations, err = registerCollector(reg, e.policyViolations); err != nil {
		return nil, err
	}
	if e.processingDuration, err = registerCollector(reg, e.processingDuration); err != nil {
		return nil, err
	}
	if e.completedTotal, err = registerCollector(reg, e.completedTotal); err != nil {
		return nil, err
	}
	if e.failedTotal, err = registerCollector(reg, e.failedTotal); err != nil {
		return nil, err
	}
	return e, nil
}

// Observe publishes one metrics snapshot into the gauges.
func (e *MetricsExporter) Observe(snap surgegate.MetricsSnapshot) {
	if e == nil {
		return
	}
	e.surgeLevel.Set(float64(snap.Level))
	e.activeRequests.Set(float64(snap.ActiveCount))
	e.queueDepth.Set(float64(snap.QueueDepth))
	e.resourceUtilization.Set(snap.ResourceUtilization)
	e.cadenceStability.Set(snap.CadenceStability)
	e.policyViolations.Set(float64(snap.PolicyViolations))
}

// CompletionHook returns a per-request callback suitable for
// surgegate.WithCompletionHook. It records duration and outcome.
func (e *MetricsExporter) CompletionHook() func(surgegate.CompletionEvent) {
	return func(ev surgegate.CompletionEvent) {
		if e == nil {
			return
		}
		e.processingDuration.Observe(ev.Duration.Seconds())
		if ev.Success {
			e.completedTotal.Inc()
		} else {
			e.failedTotal.Inc()
		}
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
