package surgegate

import (
	"testing"
	"time"
)

func TestDurationTrackerMean(t *testing.T) {
	tr := NewDurationTracker(10)

	if tr.Mean() != 0 {
		t.Errorf("empty tracker mean should be 0, got %v", tr.Mean())
	}

	tr.Record(10 * time.Millisecond)
	tr.Record(20 * time.Millisecond)
	tr.Record(30 * time.Millisecond)

	if got, want := tr.Mean(), 20*time.Millisecond; got != want {
		t.Errorf("mean = %v, want %v", got, want)
	}
	if tr.Count() != 3 {
		t.Errorf("count = %d, want 3", tr.Count())
	}
}

// TestDurationTrackerRingOverwrite verifies the oldest samples fall out
// of the window once the buffer is full.
func TestDurationTrackerRingOverwrite(t *testing.T) {
	tr := NewDurationTracker(3)

	tr.Record(100 * time.Millisecond) // will be overwritten
	tr.Record(10 * time.Millisecond)
	tr.Record(10 * time.Millisecond)
	tr.Record(10 * time.Millisecond) // overwrites the 100ms sample

	if got, want := tr.Mean(), 10*time.Millisecond; got != want {
		t.Errorf("rolling mean = %v, want %v after overwrite", got, want)
	}
	if tr.Count() != 4 {
		t.Errorf("monotonic count = %d, want 4", tr.Count())
	}
	t.Logf("✓ ring buffer keeps the most recent 3 samples")
}

func TestDurationTrackerPercentiles(t *testing.T) {
	tr := NewDurationTracker(100)
	for i := 1; i <= 100; i++ {
		tr.Record(time.Duration(i) * time.Millisecond)
	}

	p50, p95, p99 := tr.Percentiles()
	if p50 != 50*time.Millisecond {
		t.Errorf("p50 = %v, want 50ms", p50)
	}
	if p95 != 95*time.Millisecond {
		t.Errorf("p95 = %v, want 95ms", p95)
	}
	if p99 != 99*time.Millisecond {
		t.Errorf("p99 = %v, want 99ms", p99)
	}
}

// TestDurationTrackerTailDivergence verifies the saturation signal: a
// tight distribution stays near 1, a dominated tail diverges.
func TestDurationTrackerTailDivergence(t *testing.T) {
	tight := NewDurationTracker(100)
	for i := 0; i < 100; i++ {
		tight.Record(10 * time.Millisecond)
	}
	if ratio := tight.TailDivergenceRatio(); ratio != 1.0 {
		t.Errorf("uniform samples should give ratio 1.0, got %.2f", ratio)
	}

	skewed := NewDurationTracker(100)
	for i := 0; i < 95; i++ {
		skewed.Record(time.Millisecond)
	}
	for i := 0; i < 5; i++ {
		skewed.Record(10 * time.Second) // black swans
	}
	if ratio := skewed.TailDivergenceRatio(); ratio < 100 {
		t.Errorf("dominated tail should diverge, got ratio %.2f", ratio)
	}
	t.Logf("✓ tail divergence separates tight from dominated distributions")
}

func TestDurationTrackerReset(t *testing.T) {
	tr := NewDurationTracker(10)
	tr.Record(time.Second)
	tr.Reset()

	if tr.Mean() != 0 || tr.Count() != 0 {
		t.Errorf("reset tracker should be empty: mean=%v count=%d", tr.Mean(), tr.Count())
	}
}
