package surgegate

import (
	"testing"
	"time"
)

// Test helpers for admission-control properties. These are exported so
// applications embedding a coordinator can assert the same invariants
// the package itself is tested against.

// AssertClassificationMonotonic verifies that Classify never decreases
// as the request count grows.
func AssertClassificationMonotonic(t *testing.T, counts []int) {
	t.Helper()

	for i := 1; i < len(counts); i++ {
		if counts[i] < counts[i-1] {
			t.Fatalf("counts must be non-decreasing: %d before %d", counts[i-1], counts[i])
		}
		prev, curr := Classify(counts[i-1]), Classify(counts[i])
		if curr < prev {
			t.Errorf("classification not monotonic: Classify(%d)=%s but Classify(%d)=%s",
				counts[i-1], prev, counts[i], curr)
		}
	}
	t.Logf("✓ Classify monotonic over %d counts", len(counts))
}

// AssertBoundedConcurrency verifies the admission invariant on a
// snapshot: the active set never exceeds the current level's ceiling.
func AssertBoundedConcurrency(t *testing.T, snap MetricsSnapshot) {
	t.Helper()

	ceiling := ConfigFor(snap.Level).MaxConcurrent
	if snap.ActiveCount > ceiling {
		t.Errorf("concurrency ceiling violated: active=%d > maxConcurrent=%d at level %s",
			snap.ActiveCount, ceiling, snap.Level)
	}
}

// AssertStabilityBounded verifies a sequence of observed stability
// scores stayed within [0,1].
func AssertStabilityBounded(t *testing.T, scores []float64) {
	t.Helper()

	for i, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("stability out of bounds at sample %d: %f", i, s)
		}
	}
	t.Logf("✓ stability bounded in [0,1] over %d samples", len(scores))
}

// AssertConservation verifies the batch accounting identity:
// completed + failed + rejected + still queued or active == submitted.
func AssertConservation(t *testing.T, res Result, stillPending int) {
	t.Helper()

	accounted := res.Completed + res.Failed + int64(res.Rejected) + int64(stillPending)
	if accounted != int64(res.TotalRequests) {
		t.Errorf("request conservation violated: completed=%d + failed=%d + rejected=%d + pending=%d != submitted=%d",
			res.Completed, res.Failed, res.Rejected, stillPending, res.TotalRequests)
	} else {
		t.Logf("✓ conservation holds: %d requests fully accounted", res.TotalRequests)
	}
}

// SampleConcurrency polls a coordinator's status for the given span and
// returns the snapshots, asserting bounded concurrency at every instant.
// Useful for racing the invariant against a live admission loop.
func SampleConcurrency(t *testing.T, c *Coordinator, span, every time.Duration) []MetricsSnapshot {
	t.Helper()

	var snaps []MetricsSnapshot
	deadline := time.Now().Add(span)
	for time.Now().Before(deadline) {
		snap := c.Status()
		AssertBoundedConcurrency(t, snap)
		snaps = append(snaps, snap)
		time.Sleep(every)
	}
	return snaps
}
