package surgegate

import (
	"sort"
	"sync"
	"time"
)

// DurationTracker keeps a fixed-size ring buffer of recent processing
// durations and derives the rolling mean and tail percentiles from it.
//
// The mean backs the coordinator's average-processing-time metric; the
// P99/P50 ratio is a cheap saturation signal: under healthy load the tail
// stays within a small multiple of the median, while a queue running hot
// shows the tail diverging long before the mean moves.
//
// Example:
//
//	tracker := NewDurationTracker(100)
//	tracker.Record(5 * time.Millisecond)
//	tracker.Record(8 * time.Millisecond)
//
//	if tracker.TailDivergenceRatio() > 10.0 {
//	    // P99 is 10x the median: the pool is saturating
//	}
type DurationTracker struct {
	mu          sync.RWMutex
	samples     []time.Duration // ring buffer of recent durations
	maxSamples  int
	writeIndex  int
	sampleCount int64 // total recorded (monotonic)

	// Cached percentiles (invalidated on write)
	cachedP50  time.Duration
	cachedP95  time.Duration
	cachedP99  time.Duration
	cacheValid bool
}

// NewDurationTracker creates a tracker with a fixed-size ring buffer.
// A non-positive size falls back to 100 samples, matching the rolling
// average window used by the coordinator.
func NewDurationTracker(maxSamples int) *DurationTracker {
	if maxSamples <= 0 {
		maxSamples = 100
	}
	return &DurationTracker{
		samples:    make([]time.Duration, 0, maxSamples),
		maxSamples: maxSamples,
	}
}

// Record adds a duration sample, overwriting the oldest once full.
func (t *DurationTracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) < t.maxSamples {
		t.samples = append(t.samples, d)
	} else {
		t.samples[t.writeIndex] = d
	}
	t.writeIndex = (t.writeIndex + 1) % t.maxSamples
	t.sampleCount++
	t.cacheValid = false
}

// Count returns the total number of samples ever recorded.
func (t *DurationTracker) Count() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sampleCount
}

// Mean returns the rolling average over the buffered window.
// Returns zero when no samples have been recorded.
func (t *DurationTracker) Mean() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.samples) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range t.samples {
		sum += d
	}
	return sum / time.Duration(len(t.samples))
}

// Percentiles returns the buffered P50, P95 and P99 durations.
// Returns zeros when no samples have been recorded.
func (t *DurationTracker) Percentiles() (p50, p95, p99 time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refreshCache()
	return t.cachedP50, t.cachedP95, t.cachedP99
}

// TailDivergenceRatio returns P99/P50 over the buffered window.
// A ratio near 1 means a tight distribution; a large ratio means the
// tail dominates. Returns 0 with fewer than two samples.
func (t *DurationTracker) TailDivergenceRatio() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) < 2 {
		return 0
	}
	t.refreshCache()
	if t.cachedP50 <= 0 {
		return 0
	}
	return float64(t.cachedP99) / float64(t.cachedP50)
}

// Reset discards all buffered samples and cached percentiles.
func (t *DurationTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = t.samples[:0]
	t.writeIndex = 0
	t.sampleCount = 0
	t.cacheValid = false
	t.cachedP50, t.cachedP95, t.cachedP99 = 0, 0, 0
}

// refreshCache recomputes percentiles when stale. Caller holds t.mu.
func (t *DurationTracker) refreshCache() {
	if t.cacheValid || len(t.samples) == 0 {
		return
	}

	sorted := make([]time.Duration, len(t.samples))
	copy(sorted, t.samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	t.cachedP50 = percentileOf(sorted, 0.50)
	t.cachedP95 = percentileOf(sorted, 0.95)
	t.cachedP99 = percentileOf(sorted, 0.99)
	t.cacheValid = true
}

// percentileOf indexes a sorted sample slice at quantile q in (0,1].
func percentileOf(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted))*q) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
