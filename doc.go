// Package surgegate provides surge admission control and worker-pool
// scaling for bursty request streams.
//
// # Overview
//
// surgegate classifies offered load into discrete surge levels, sizes a
// bounded worker pool from a static level table, and admits queued
// requests in strict FIFO order under the current concurrency ceiling.
// Two background monitors track host resource pressure and
// processing-cadence stability; a drain protocol stabilizes the system
// under emergency conditions.
//
// # Architecture
//
// The package components:
//
//   - Classify / ConfigFor  - surge level thresholds and the pool table
//   - Coordinator           - façade: SubmitBatch, Status, Drain
//   - workerPool            - FIFO admission under a dynamic ceiling
//   - CadenceMonitor        - bounded throughput-stability score
//   - ResourceMonitor       - CPU/memory pressure sampling (gopsutil)
//   - AdmissionPolicy       - optional closed-loop backpressure
//   - DurationTracker       - rolling processing-time distribution
//   - observability/prometheus - metrics export
//
// # Quick Start
//
// Construct one coordinator, share it by reference:
//
//	coord := surgegate.New(surgegate.DefaultConfig())
//	coord.Initialize(ctx)
//
//	batch := surgegate.MakeBatch(30, 7, 1.2, nil)
//	res, err := coord.SubmitBatch(ctx, batch)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("level: %s\n", res.Level)
//	fmt.Printf("throughput: %.1f req/s\n", res.Throughput)
//	fmt.Printf("success rate: %.2f\n", res.SuccessRate)
//
// A batch that cannot finish inside its bound (5s + 100ms per request)
// returns a partial-success Result, never an error.
//
// # Admission Model
//
// Admission runs on a 10ms tick. Each window re-reads the concurrency
// ceiling for the current surge level and pulls the head of the queue
// into independent processing tasks. Level changes gate future windows
// only; in-flight requests are never preempted. Priority does not affect
// admission order - it is consulted only when a drain decides which
// queued requests survive.
//
// # Backpressure
//
// The resource and cadence monitors are advisory by default: pressure is
// logged, not acted on. Installing an AdmissionPolicy (for example
// GovernorPolicy) applies a multiplier in [0,1] to the ceiling, closing
// the loop explicitly:
//
//	coord := surgegate.New(cfg,
//	    surgegate.WithAdmissionPolicy(&surgegate.GovernorPolicy{}),
//	)
//
// # Drain Protocol
//
// Drain stops new batches, evicts queued requests below the priority
// floor (default 8), waits a bounded time for in-flight work to finish,
// then resets all metrics and returns the coordinator to idle:
//
//	dr := coord.Drain(ctx, 10*time.Second)
//	fmt.Printf("retained %d, evicted %d, drained=%v\n",
//	    dr.Retained, dr.Evicted, dr.Drained)
//
// In-flight requests are never force-cancelled; graceful degradation is
// a timeout on the wait, not a kill.
package surgegate
